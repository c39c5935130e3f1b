package cmd

import (
	"fmt"
	"os"

	"imagededup/config"
	"imagededup/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configFile string
	debugMode  bool
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "imagededup",
	Short: "Remove duplicate images from a directory",
	Long: `imagededup decodes every JPEG and PNG image in a directory, compares
them pixel by pixel and deletes each image that matches one already kept.

Two images are duplicates when they have the same dimensions and at least
the given percentage of their pixel values are identical.`,
	SilenceUsage: true,
}

func Execute() {
	defer logging.CloseLogger()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		logging.CloseLogger()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "logfile", "", "Debug log file (default imagededup.log with --debug)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// loadConfig resolves settings from defaults, environment and --config.
// Command flags are applied on top by each command.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if configFile != "" {
		if err := cfg.MergeFile(configFile); err != nil {
			return nil, err
		}
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	return cfg, nil
}

// setupLogging starts the debug log when --debug or a log file is set
func setupLogging(cfg *config.Config) error {
	path := cfg.LogFile
	if path == "" {
		if !debugMode {
			return nil
		}
		path = "imagededup.log"
	}
	if err := logging.SetupLogger(path); err != nil {
		return err
	}
	if debugMode {
		fmt.Fprintf(os.Stderr, "Debug mode enabled. Logging to: %s\n", path)
	}
	return nil
}

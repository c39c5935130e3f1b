package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"imagededup/config"
	"imagededup/database"
	"imagededup/logging"
	"imagededup/scanner"
	"imagededup/signalhandler"
	"imagededup/utils"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan <directory>",
	Short: "Delete duplicate images in a directory",
	Long: `Scan decodes the .jpg, .jpeg and .png files directly inside the directory
(subdirectories are not visited) and deletes every image whose pixels match
an image already kept in the same scan.

Examples:
  imagededup scan ~/Pictures
  imagededup scan ~/Pictures --similarity 99 --workers 4
  imagededup scan ./export --ignore-case --no-journal`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().String("similarity", "95", "Minimum similarity percentage (0-100, e.g. 95 or 97.5%) for two images to be duplicates")
	scanCmd.Flags().Int("workers", 0, "Number of parallel workers (0 = number of CPUs)")
	scanCmd.Flags().Bool("ignore-case", false, "Also match upper-case extensions such as .JPG")
	scanCmd.Flags().String("journal", "", "SQLite removal journal (default imagededup.db next to the executable)")
	scanCmd.Flags().Bool("no-journal", false, "Do not record removals")
	scanCmd.Flags().Bool("quiet", false, "Hide the progress bar")
}

// applyScanFlags overrides cfg with the flags set on the command line
func applyScanFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("similarity") {
		threshold, err := utils.ParseThreshold(mustGetString(cmd, "similarity"))
		if err != nil {
			return err
		}
		cfg.Similarity = threshold * 100
	}
	if flags.Changed("workers") {
		cfg.Workers = mustGetInt(cmd, "workers")
	}
	if flags.Changed("ignore-case") {
		cfg.IgnoreCase = mustGetBool(cmd, "ignore-case")
	}
	if flags.Changed("journal") {
		cfg.Journal = mustGetString(cmd, "journal")
	}
	if flags.Changed("no-journal") {
		cfg.NoJournal = mustGetBool(cmd, "no-journal")
	}
	return nil
}

// checkDirectory verifies that dir exists and is a directory
func checkDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", dir)
		}
		return fmt.Errorf("cannot access directory: %s (%v)", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dir)
	}
	return nil
}

// openJournal initializes the journal database with retry logic
func openJournal(path string) (*sql.DB, error) {
	const maxRetries = 3
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		db, err := database.InitDatabase(path)
		if err == nil {
			return db, nil
		}
		lastErr = err
		if i < maxRetries-1 {
			logging.LogWarning("Error initializing journal (attempt %d/%d): %v - retrying...",
				i+1, maxRetries, err)
			time.Sleep(time.Second * time.Duration(i+1))
		}
	}
	return nil, fmt.Errorf("error initializing journal after %d attempts: %w", maxRetries, lastErr)
}

func newScanProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Comparing images"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("chunks"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)
}

func runScan(cmd *cobra.Command, args []string) error {
	dir := args[0]
	if err := checkDirectory(dir); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyScanFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	threshold, _ := cfg.Threshold()

	if err := setupLogging(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to setup logging: %v\n", err)
	}

	opts := scanner.Options{
		Parallelism: cfg.Workers,
		IgnoreCase:  cfg.IgnoreCase,
	}
	if !cfg.NoJournal {
		db, err := openJournal(cfg.Journal)
		if err != nil {
			return err
		}
		defer db.Close()
		opts.Journal = database.NewJournal(db)
	}

	ctx, cancel := signalhandler.SetupHandler(cmd.Context())
	defer cancel()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanning %s (similarity %.2f%%)\n", dir, cfg.Similarity)

	var progress scanner.ProgressFunc
	var bar *progressbar.ProgressBar
	if !mustGetBool(cmd, "quiet") {
		// calls never overlap, so the bar is created on the first one
		progress = func(completed, total int) {
			if bar == nil {
				bar = newScanProgressBar(cmd.ErrOrStderr(), total)
			}
			_ = bar.Set(completed)
		}
	}

	s := scanner.New(afero.NewOsFs(), opts)

	type outcome struct {
		result *scanner.Result
		err    error
	}
	doneChan := make(chan outcome, 1)
	go func() {
		result, err := s.Scan(ctx, dir, threshold, progress)
		doneChan <- outcome{result, err}
	}()

	res := <-doneChan
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(cmd.ErrOrStderr())
	}

	if res.result != nil {
		printSummary(out, res.result, cfg)
	}
	if res.err != nil {
		if errors.Is(res.err, context.Canceled) {
			return fmt.Errorf("scan interrupted: %w", res.err)
		}
		return fmt.Errorf("error scanning directory: %w", res.err)
	}
	return nil
}

func printSummary(w io.Writer, r *scanner.Result, cfg *config.Config) {
	var reclaimed int64
	for _, d := range r.Duplicates {
		reclaimed += d.Size
	}

	fmt.Fprintf(w, "\nScan %s finished in %v\n", r.ScanID, r.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "- Images examined: %d\n", r.Files)
	fmt.Fprintf(w, "- Kept: %d\n", r.Kept)
	fmt.Fprintf(w, "- Duplicates removed: %d (%s)\n", r.Removed, utils.FormatBytes(reclaimed))
	if r.Skipped > 0 {
		fmt.Fprintf(w, "- Unreadable files skipped: %d\n", r.Skipped)
	}
	if r.Failed > 0 {
		fmt.Fprintf(w, "- Removals failed: %d\n", r.Failed)
	}
	if !cfg.NoJournal {
		fmt.Fprintf(w, "Journal: %s\n", cfg.Journal)
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"

	"imagededup/utils"

	"gopkg.in/yaml.v3"
)

// DefaultSimilarity is the similarity percentage used when none is configured
const DefaultSimilarity = 95.0

// Config holds the scan settings shared by the CLI commands. Similarity is a
// percentage in [0,100].
type Config struct {
	Similarity float64
	Workers    int    // 0 = number of CPUs
	Journal    string // path to the SQLite removal journal
	NoJournal  bool
	LogFile    string // debug log; empty = no debug log
	IgnoreCase bool
}

// fileConfig mirrors Config for YAML files. Pointers distinguish "unset"
// from zero values.
type fileConfig struct {
	Similarity *float64 `yaml:"similarity"`
	Workers    *int     `yaml:"workers"`
	Journal    *string  `yaml:"journal"`
	NoJournal  *bool    `yaml:"no_journal"`
	LogFile    *string  `yaml:"logfile"`
	IgnoreCase *bool    `yaml:"ignore_case"`
}

// envInt reads an environment variable and parses it as a non-negative
// integer. Returns the default value if the env var is unset or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// Load builds the configuration from defaults and IMAGEDEDUP_* environment
// variables
func Load() *Config {
	return &Config{
		Similarity: envFloat("IMAGEDEDUP_SIMILARITY", DefaultSimilarity),
		Workers:    envInt("IMAGEDEDUP_WORKERS", 0),
		Journal:    envString("IMAGEDEDUP_JOURNAL", utils.GetDefaultDatabasePath()),
		NoJournal:  envBool("IMAGEDEDUP_NO_JOURNAL", false),
		LogFile:    os.Getenv("IMAGEDEDUP_LOGFILE"),
		IgnoreCase: envBool("IMAGEDEDUP_IGNORE_CASE", false),
	}
}

// MergeFile overlays the settings present in a YAML file
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read config %s: %w", path, err)
	}
	return c.mergeYAML(data)
}

func (c *Config) mergeYAML(data []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if fc.Similarity != nil {
		c.Similarity = *fc.Similarity
	}
	if fc.Workers != nil {
		c.Workers = *fc.Workers
	}
	if fc.Journal != nil {
		c.Journal = *fc.Journal
	}
	if fc.NoJournal != nil {
		c.NoJournal = *fc.NoJournal
	}
	if fc.LogFile != nil {
		c.LogFile = *fc.LogFile
	}
	if fc.IgnoreCase != nil {
		c.IgnoreCase = *fc.IgnoreCase
	}
	return nil
}

// Threshold validates Similarity and returns it as a fraction in [0,1]
func (c *Config) Threshold() (float64, error) {
	return utils.PercentToThreshold(c.Similarity)
}

// Validate rejects settings a scan cannot start with
func (c *Config) Validate() error {
	if _, err := c.Threshold(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

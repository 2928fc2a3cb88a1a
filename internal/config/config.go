// Package config loads crimescope settings from a YAML file and the
// environment.
//
// Every key has a default, so a missing config file is not an error.
// Environment variables override file values using the CRIMESCOPE prefix,
// e.g. CRIMESCOPE_ANALYSIS_TOP_N=5.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rewired-gh/crimescope/internal/fetch"
	"github.com/rewired-gh/crimescope/internal/loader"
	"github.com/rewired-gh/crimescope/internal/period"
	"github.com/rewired-gh/crimescope/internal/session"
)

// EnvPrefix prefixes environment variable overrides.
const EnvPrefix = "CRIMESCOPE"

// Config represents the complete application configuration
type Config struct {
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Render   RenderConfig   `mapstructure:"render"`
	Export   ExportConfig   `mapstructure:"export"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DatasetConfig describes the incident file and how to read it.
type DatasetConfig struct {
	Path         string   `mapstructure:"path"`
	Delimiter    string   `mapstructure:"delimiter"`
	Sheet        string   `mapstructure:"sheet"`
	ExcludeYears []int    `mapstructure:"exclude_years"`
	KeepColumns  []string `mapstructure:"keep_columns"`

	// Remote datasets (http or https paths) are downloaded first.
	DownloadDir     string        `mapstructure:"download_dir"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	DownloadRetries int           `mapstructure:"download_retries"`
}

// AnalysisConfig holds the query defaults.
type AnalysisConfig struct {
	Offense  string   `mapstructure:"offense"`
	MinCount int      `mapstructure:"min_count"`
	TopN     int      `mapstructure:"top_n"`
	Depth    int      `mapstructure:"depth"`
	Mode     string   `mapstructure:"mode"`
	Exclude  []string `mapstructure:"exclude"`
	Keywords []string `mapstructure:"keywords"`
}

// RenderConfig controls chart output.
type RenderConfig struct {
	OutDir string `mapstructure:"out_dir"`
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
}

// ExportConfig controls report files.
type ExportConfig struct {
	Dir             string      `mapstructure:"dir"`
	FilePermissions os.FileMode `mapstructure:"file_permissions"`
	DirPermissions  os.FileMode `mapstructure:"dir_permissions"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultKeywords are the offense families drilled into by a seasonality
// report.
var DefaultKeywords = []string{
	"LARCENY", "ASSAULT", "INVESTIGATE PERSON", "INVESTIGATE PROPERTY",
	"ARSON", "DRUGS", "VANDALISM", "BURGLARY", "THREATS", "MURDER",
	"ANIMAL ABUSE", "ALCOHOL",
}

// Load reads configuration from path and environment variables. An empty
// path or a path that does not exist yields the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("dataset.path", "./data/crime.csv")
	v.SetDefault("dataset.delimiter", ",")
	v.SetDefault("dataset.sheet", "")
	v.SetDefault("dataset.exclude_years", []int{2024})
	v.SetDefault("dataset.keep_columns", []string{})
	v.SetDefault("dataset.download_dir", "")
	v.SetDefault("dataset.download_timeout", "2m")
	v.SetDefault("dataset.download_retries", 3)

	v.SetDefault("analysis.offense", "")
	v.SetDefault("analysis.min_count", 0)
	v.SetDefault("analysis.top_n", 3)
	v.SetDefault("analysis.depth", 0)
	v.SetDefault("analysis.mode", "season")
	v.SetDefault("analysis.exclude", session.NonCrimeOffenses)
	v.SetDefault("analysis.keywords", DefaultKeywords)

	v.SetDefault("render.out_dir", "./out")
	v.SetDefault("render.width", 800)
	v.SetDefault("render.height", 500)

	v.SetDefault("export.dir", "./out")
	v.SetDefault("export.file_permissions", 0o644)
	v.SetDefault("export.dir_permissions", 0o755)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Dataset.Path == "" {
		return fmt.Errorf("dataset.path is required")
	}
	if _, err := c.Delimiter(); err != nil {
		return err
	}
	if c.Dataset.DownloadTimeout < 0 || c.Dataset.DownloadRetries < 0 {
		return fmt.Errorf("dataset download settings must not be negative")
	}

	if c.Analysis.MinCount < 0 {
		return fmt.Errorf("analysis.min_count must not be negative")
	}
	if c.Analysis.TopN < 1 {
		return fmt.Errorf("analysis.top_n must be at least 1")
	}
	if c.Analysis.Depth < 0 {
		return fmt.Errorf("analysis.depth must not be negative")
	}
	if _, err := period.ParseMode(c.Analysis.Mode); err != nil {
		return fmt.Errorf("analysis.mode must be one of: month, season")
	}

	if c.Render.Width < 100 || c.Render.Height < 100 {
		return fmt.Errorf("render.width and render.height must be at least 100")
	}

	if c.Export.FilePermissions == 0 || c.Export.DirPermissions == 0 {
		return fmt.Errorf("export permissions must be non-zero")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	if c.Telegram.MaxRetries < 0 {
		return fmt.Errorf("telegram.max_retries must not be negative")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// Delimiter returns the dataset delimiter as a rune. "\t" and "tab" both
// select a tab.
func (c *Config) Delimiter() (rune, error) {
	d := c.Dataset.Delimiter
	switch d {
	case "", ",":
		return ',', nil
	case `\t`, "tab", "\t":
		return '\t', nil
	}
	r := []rune(d)
	if len(r) != 1 || r[0] == '"' || r[0] == '\n' || r[0] == '\r' {
		return 0, fmt.Errorf("dataset.delimiter must be a single character, got %q", d)
	}
	return r[0], nil
}

// LoaderOptions returns the options for reading the dataset.
func (c *Config) LoaderOptions() loader.Options {
	d, _ := c.Delimiter()
	return loader.Options{
		Delimiter:    d,
		Sheet:        c.Dataset.Sheet,
		ExcludeYears: c.Dataset.ExcludeYears,
		KeepColumns:  c.Dataset.KeepColumns,
	}
}

// FetchConfig returns the settings for downloading remote datasets.
func (c *Config) FetchConfig() fetch.Config {
	return fetch.Config{
		Timeout:        c.Dataset.DownloadTimeout,
		MaxRetries:     c.Dataset.DownloadRetries,
		RetryDelayBase: time.Second,
		Dir:            c.Dataset.DownloadDir,
	}
}

// ReportOptions returns the seasonality report options. Mode has already
// been checked by Validate; an unknown mode falls back to seasons.
func (c *Config) ReportOptions() session.ReportOptions {
	mode, err := period.ParseMode(c.Analysis.Mode)
	if err != nil {
		mode = period.BySeason
	}
	return session.ReportOptions{
		Mode:     mode,
		TopN:     c.Analysis.TopN,
		Depth:    c.Analysis.Depth,
		Exclude:  c.Analysis.Exclude,
		Keywords: c.Analysis.Keywords,
	}
}

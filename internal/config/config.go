// Package config loads application configuration from ~/.tally.yaml
// (or an explicit path) using Viper, with environment overrides for
// credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// RemoteConfig holds the settings for the hosted mirror repository.
type RemoteConfig struct {
	// APIBase is the root URL of the contents API
	// (default: https://api.github.com).
	APIBase string `mapstructure:"api_base" yaml:"api_base"`

	// Owner is the account that owns the mirror repository.
	Owner string `mapstructure:"owner" yaml:"owner"`

	// Repo is the mirror repository name.
	Repo string `mapstructure:"repo" yaml:"repo"`

	// Branch is the branch commits land on (default: main).
	Branch string `mapstructure:"branch" yaml:"branch"`

	// Token authenticates API requests. Prefer the TALLY_TOKEN
	// environment variable over storing it in the config file.
	Token string `mapstructure:"token" yaml:"token"`

	// PathPrefix is the directory inside the repository that holds
	// the table files (default: data).
	PathPrefix string `mapstructure:"path_prefix" yaml:"path_prefix"`
}

// LogConfig holds log file rotation settings.
type LogConfig struct {
	// File is the log file path. Empty means log to stderr only.
	File string `mapstructure:"file" yaml:"file"`

	// MaxSizeMB is the size at which the log file rotates.
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is how many rotated files to keep.
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
}

// DaemonConfig holds background sync settings.
type DaemonConfig struct {
	// DebounceMS is how long to wait after a file change before
	// syncing, in milliseconds.
	DebounceMS int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

// DashboardConfig holds dashboard server settings.
type DashboardConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// Config is the top-level application configuration.
type Config struct {
	// DataDir is the directory holding the table files
	// (default: ~/.tally/data).
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	// CachePath is the report cache database path
	// (default: ~/.tally/cache.db).
	CachePath string `mapstructure:"cache_path" yaml:"cache_path"`

	Remote    RemoteConfig    `mapstructure:"remote" yaml:"remote"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Daemon    DaemonConfig    `mapstructure:"daemon" yaml:"daemon"`
	Dashboard DashboardConfig `mapstructure:"dashboard" yaml:"dashboard"`
}

// RemoteConfigured reports whether enough remote settings are present
// to sync. Without them the app runs local-only.
func (c *Config) RemoteConfigured() bool {
	return c.Remote.Owner != "" && c.Remote.Repo != ""
}

// DefaultPath returns the default configuration file path, ~/.tally.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tally.yaml"
	}
	return filepath.Join(home, ".tally.yaml")
}

func defaults() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		DataDir:   filepath.Join(home, ".tally", "data"),
		CachePath: filepath.Join(home, ".tally", "cache.db"),
		Remote: RemoteConfig{
			APIBase:    "https://api.github.com",
			Branch:     "main",
			PathPrefix: "data",
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Daemon:    DaemonConfig{DebounceMS: 250},
		Dashboard: DashboardConfig{Port: 8090},
	}
}

// Load reads configuration from path. A missing file yields defaults.
// The TALLY_TOKEN environment variable overrides remote.token.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	def := defaults()
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("cache_path", def.CachePath)
	v.SetDefault("remote.api_base", def.Remote.APIBase)
	v.SetDefault("remote.branch", def.Remote.Branch)
	v.SetDefault("remote.path_prefix", def.Remote.PathPrefix)
	v.SetDefault("log.max_size_mb", def.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", def.Log.MaxBackups)
	v.SetDefault("daemon.debounce_ms", def.Daemon.DebounceMS)
	v.SetDefault("dashboard.port", def.Dashboard.Port)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return applyEnv(def), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return applyEnv(def), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return applyEnv(cfg), nil
}

func applyEnv(cfg *Config) *Config {
	if token := os.Getenv("TALLY_TOKEN"); token != "" {
		cfg.Remote.Token = token
	}
	return cfg
}

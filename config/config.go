package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config represents the complete Mila configuration
type Config struct {
	BaseDir  string        `yaml:"-"` // Directory containing config file, for resolving relative paths
	MaxDepth int           `yaml:"max_depth"`
	REPL     REPLConfig    `yaml:"repl"`
	History  HistoryConfig `yaml:"history"`
	Logging  LoggingConfig `yaml:"logging"`
	Watch    WatchConfig   `yaml:"watch"`
}

// REPLConfig holds interactive shell settings
type REPLConfig struct {
	Prompt string `yaml:"prompt"`
	Banner bool   `yaml:"banner"`
}

// HistoryConfig holds the run history store settings
type HistoryConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Driver     string `yaml:"driver"`      // sqlite, postgres or mysql
	DSN        string `yaml:"dsn"`         // file path for sqlite, connection string otherwise
	MaxEntries int    `yaml:"max_entries"` // oldest runs are pruned past this; 0 keeps everything
	Locale     string `yaml:"locale"`      // timestamp locale for history list, e.g. fr_FR
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// WatchConfig holds --watch settings
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Defaults returns a Config with sensible defaults
func Defaults() *Config {
	return &Config{
		MaxDepth: 10000,
		REPL: REPLConfig{
			Prompt: ">> ",
			Banner: true,
		},
		History: HistoryConfig{
			Enabled:    true,
			Driver:     "sqlite",
			DSN:        filepath.Join(UserDir(), "history.db"),
			MaxEntries: 1000,
			Locale:     "en_US",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Watch: WatchConfig{
			Debounce: 100 * time.Millisecond,
		},
	}
}

// UserDir is ~/.config/mila, or a directory under the temp dir when the
// home directory is unknown.
func UserDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "mila")
	}
	return filepath.Join(home, ".config", "mila")
}

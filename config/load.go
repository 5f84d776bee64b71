package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a file with ENV interpolation.
// If configPath is empty, it searches default locations and falls back to
// Defaults() when none exists.
func Load(configPath string, getenv func(string) string) (*Config, error) {
	cfg, _, err := LoadWithPath(configPath, getenv)
	return cfg, err
}

// LoadWithPath reads configuration and returns both the config and the
// resolved path. The path is empty when no file was found and the defaults
// are in use.
func LoadWithPath(configPath string, getenv func(string) string) (*Config, string, error) {
	path, err := resolveConfigPath(configPath, getenv)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return Defaults(), "", nil
	}

	// Get absolute path and directory for resolving relative paths
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	baseDir := filepath.Dir(absPath)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	data = interpolateEnv(data, getenv)

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.BaseDir = baseDir

	// A sqlite DSN is a file path: expand ~ and resolve it against the
	// config file's directory.
	if cfg.History.Driver == "sqlite" && cfg.History.DSN != "" {
		cfg.History.DSN = resolvePath(cfg.History.DSN, baseDir)
	}

	if err := Validate(cfg); err != nil {
		return nil, "", err
	}

	return cfg, absPath, nil
}

func resolvePath(path, baseDir string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	if path == ":memory:" || strings.HasPrefix(path, "file:") || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// resolveConfigPath finds the config file. An explicit path or MILA_CONFIG
// must exist; the default locations are optional and "" means none was found.
func resolveConfigPath(explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	// Try MILA_CONFIG environment variable
	if envPath := getenv("MILA_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("MILA_CONFIG file not found: %s", envPath)
		}
		return envPath, nil
	}

	// Try ./mila.yaml
	if _, err := os.Stat("mila.yaml"); err == nil {
		return "mila.yaml", nil
	}

	// Try ~/.config/mila/mila.yaml
	home, err := os.UserHomeDir()
	if err == nil {
		xdgPath := filepath.Join(home, ".config", "mila", "mila.yaml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
	}

	return "", nil
}

// envPattern matches ${VAR} or ${VAR:-default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// interpolateEnv replaces ${VAR} and ${VAR:-default} patterns with environment values.
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := string(parts[1])
		value := getenv(varName)

		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}

		return []byte(value)
	})
}

// MaxDepthLimit is the largest accepted max_depth. Deeper call chains can
// exhaust the Go stack before the interpreter's own limit is reached.
const MaxDepthLimit = 100000

var (
	validDrivers = map[string]bool{"sqlite": true, "postgres": true, "mysql": true}
	validLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validFormats = map[string]bool{"json": true, "text": true}
)

// Validate checks the configuration for errors. Call it again after
// applying CLI overrides.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.MaxDepth < 1 {
		errs = append(errs, fmt.Sprintf("max_depth: must be positive, got %d", cfg.MaxDepth))
	} else if cfg.MaxDepth > MaxDepthLimit {
		errs = append(errs, fmt.Sprintf("max_depth: must be at most %d, got %d", MaxDepthLimit, cfg.MaxDepth))
	}

	if !validDrivers[cfg.History.Driver] {
		errs = append(errs, fmt.Sprintf("history.driver: unknown driver %q (use sqlite, postgres or mysql)", cfg.History.Driver))
	}
	if cfg.History.MaxEntries < 0 {
		errs = append(errs, fmt.Sprintf("history.max_entries: must not be negative, got %d", cfg.History.MaxEntries))
	}

	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Sprintf("logging.level: unknown level %q", cfg.Logging.Level))
	}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Sprintf("logging.format: unknown format %q", cfg.Logging.Format))
	}

	if cfg.Watch.Debounce < 0 {
		errs = append(errs, "watch.debounce: must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Warnings returns non-fatal configuration issues that should be reported
// to the user.
func Warnings(cfg *Config) []string {
	var warnings []string

	if cfg.History.Enabled && cfg.History.DSN == "" {
		warnings = append(warnings, "history: enabled but no dsn configured - runs will not be recorded")
	}
	if cfg.MaxDepth > 50000 {
		warnings = append(warnings, fmt.Sprintf("max_depth %d is very high - deep recursion may exhaust the Go stack first", cfg.MaxDepth))
	}
	if cfg.Watch.Debounce > 0 && cfg.Watch.Debounce < 10*time.Millisecond {
		warnings = append(warnings, "watch.debounce below 10ms - editors that write in several steps may trigger repeated runs")
	}
	if cfg.REPL.Prompt == "" {
		warnings = append(warnings, "repl.prompt is empty")
	}

	return warnings
}

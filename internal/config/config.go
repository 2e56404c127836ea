package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Database is the sqlite file that holds parsed record history
	Database string `yaml:"database"`
	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level"`
	// Workers bounds concurrent document parsing
	Workers int `yaml:"workers"`
	// MetricsFile, when set, receives Prometheus textfile output after a run
	MetricsFile string  `yaml:"metrics_file,omitempty"`
	Sources     Sources `yaml:"sources"`
	Link        Link    `yaml:"link"`
}

type Sources struct {
	// TarMember is the report path inside support bundles
	TarMember string `yaml:"tar_member"`
}

type Link struct {
	TrimTrailingSlash bool `yaml:"trim_trailing_slash"`
}

// defaultConfig provides baseline settings
var defaultConfig = Config{
	Database: "/var/lib/autosupport/records.db",
	LogLevel: "info",
	Sources: Sources{
		TarMember: "ddr/var/support/autosupport",
	},
}

// Environment overrides, applied after the file
const (
	EnvDatabase    = "AUTOSUPPORT_DATABASE"
	EnvLogLevel    = "AUTOSUPPORT_LOG_LEVEL"
	EnvWorkers     = "AUTOSUPPORT_WORKERS"
	EnvMetricsFile = "AUTOSUPPORT_METRICS_FILE"
)

// Default returns the built-in configuration
func Default() *Config {
	cfg := defaultConfig
	cfg.Workers = runtime.NumCPU()
	return &cfg
}

// Load reads the config at path, or the first default location that exists
// when path is empty. Missing files fall back to defaults; a file that does
// not parse is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		// Try default locations
		candidates := []string{
			"/etc/autosupport/config.yaml",
			filepath.Join(os.Getenv("HOME"), ".config/autosupport/config.yaml"),
			"config.yaml",
		}
		for _, c := range candidates {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case explicit:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	applyEnv(&cfg)

	// Apply defaults for missing values
	if cfg.Database == "" {
		cfg.Database = defaultConfig.Database
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultConfig.LogLevel
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Sources.TarMember == "" {
		cfg.Sources.TarMember = defaultConfig.Sources.TarMember
	}

	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvDatabase); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v := os.Getenv(EnvMetricsFile); v != "" {
		cfg.MetricsFile = v
	}
}

// ParseLevel maps a log_level value to a slog level
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q", level)
	}
}

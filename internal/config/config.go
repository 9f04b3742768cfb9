// Package config loads ember's small configuration file plus environment
// overrides, generalized from the teacher's load-then-override
// config.Load() shape (cmd/pulse/config.go).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is ember's process-wide configuration. Kept deliberately small:
// the engine persists nothing between runs beyond opaque provider-owned
// hint files (spec.md §1), so there is no catalog or inventory here.
type Config struct {
	// StateDir is the XDG state directory providers may use for opaque
	// sidecar files (e.g. the remote_file ETag cache).
	StateDir string `yaml:"state_dir"`

	// BackupExtension is the configured backup file extension. It is
	// loaded and shown by `ember config show`; no provider passes it to
	// fileprim.CreateBackup.
	BackupExtension string `yaml:"backup_extension"`

	// LogLevel is a zerolog level name ("debug", "info", "warn", "error").
	LogLevel string `yaml:"log_level"`

	// MetricsAddr, if non-empty, serves /metrics on this address.
	MetricsAddr string `yaml:"metrics_addr"`

	// ReportAddr, if non-empty, serves the live websocket report hub on
	// this address.
	ReportAddr string `yaml:"report_addr"`
}

// Default returns Config populated with the engine's built-in defaults,
// before any file or environment override is applied.
func Default() Config {
	return Config{
		StateDir:        defaultStateDir(),
		BackupExtension: "ember-backup",
		LogLevel:        "info",
	}
}

// Load reads path (if it exists) over the defaults, then applies
// EMBER_*-prefixed environment overrides, mirroring the teacher's
// file-then-env precedence.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// No config file is not an error: defaults apply.
		default:
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return Config{}, fmt.Errorf("config: creating state dir %s: %w", cfg.StateDir, err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("EMBER_STATE_DIR"); v != "" {
		cfg.StateDir = v
	}
	if v := os.Getenv("EMBER_BACKUP_EXTENSION"); v != "" {
		cfg.BackupExtension = v
	}
	if v := os.Getenv("EMBER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("EMBER_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("EMBER_REPORT_ADDR"); v != "" {
		cfg.ReportAddr = v
	}
}

func defaultStateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "ember")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "ember")
	}
	return filepath.Join(home, ".local", "state", "ember")
}

// Package config loads strata settings from defaults, strata.yaml,
// STRATA_* environment variables and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/strata/internal/store"
)

const maxWalkDepth = 25

// FileNames are the config file names searched for, in order.
var FileNames = []string{"strata.yaml", "strata.yml"}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"db":           "database",
	"driver":       "driver",
	"journal-mode": "journal_mode",
	"busy-timeout": "busy_timeout",
	"foreign-keys": "foreign_keys",
}

var journalModes = []string{"DELETE", "TRUNCATE", "PERSIST", "MEMORY", "WAL", "OFF"}

// Config holds connection settings.
type Config struct {
	Database    string        `mapstructure:"database"`
	Driver      string        `mapstructure:"driver"`
	JournalMode string        `mapstructure:"journal_mode"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
	ForeignKeys bool          `mapstructure:"foreign_keys"`
}

// Load resolves the configuration with precedence flags > env > config
// file > defaults. Only flags in flags that were set on the command line
// take effect. It returns the config file used, empty when none was found.
func Load(explicitPath string, flags *pflag.FlagSet) (*Config, string, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("STRATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, "", fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	path, err := findConfigFile(explicitPath)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, path, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, path, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return &cfg, path, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database", "")
	v.SetDefault("driver", store.DriverCGO)
	v.SetDefault("journal_mode", "WAL")
	v.SetDefault("busy_timeout", 5*time.Second)
	v.SetDefault("foreign_keys", true)
}

// Validate checks the driver and journal mode.
func (c *Config) Validate() error {
	switch c.Driver {
	case store.DriverCGO, store.DriverPureGo:
	default:
		return fmt.Errorf("unknown driver %q (want %s or %s)", c.Driver, store.DriverCGO, store.DriverPureGo)
	}
	if !slices.Contains(journalModes, strings.ToUpper(c.JournalMode)) {
		return fmt.Errorf("unknown journal mode %q", c.JournalMode)
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("busy timeout must not be negative, got %s", c.BusyTimeout)
	}
	return nil
}

// Pragmas renders the connection pragmas.
func (c *Config) Pragmas() []string {
	fk := "OFF"
	if c.ForeignKeys {
		fk = "ON"
	}
	return []string{
		"PRAGMA journal_mode = " + strings.ToUpper(c.JournalMode),
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", c.BusyTimeout.Milliseconds()),
		"PRAGMA foreign_keys = " + fk,
	}
}

// StoreOptions returns the store.Open options for c.
func (c *Config) StoreOptions() []store.Option {
	return []store.Option{
		store.WithDriver(c.Driver),
		store.WithPragmas(c.Pragmas()...),
	}
}

// findConfigFile validates an explicit path, or walks up from the working
// directory looking for FileNames, stopping at a .git entry or after
// maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil
}

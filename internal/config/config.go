// Package config resolves runtime settings from flags, AGENT_STATE_* env
// vars, an optional .env file, and defaults, in that order.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "AGENT_STATE"

// Keys shared by flags, env vars and defaults.
const (
	KeyDB           = "db"
	KeyAddr         = "addr"
	KeyDefaultModel = "default-model"
	KeyLogLevel     = "log-level"
	KeyFormat       = "format"
)

type Config struct {
	DBPath       string
	Addr         string
	DefaultModel string
	LogLevel     string
	Format       string // "json" or "text"
}

// DefaultDBPath is ~/.agent-state/state.db.
func DefaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".agent-state", "state.db")
}

// Load builds a Config. flags may be nil; only flags the user actually set
// override env vars.
func Load(flags *pflag.FlagSet) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyDB, DefaultDBPath())
	v.SetDefault(KeyAddr, ":8080")
	v.SetDefault(KeyDefaultModel, "gpt-3.5-turbo")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyFormat, "json")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, errors.Wrap(err, "bind flags")
		}
	}

	cfg := &Config{
		DBPath:       v.GetString(KeyDB),
		Addr:         v.GetString(KeyAddr),
		DefaultModel: v.GetString(KeyDefaultModel),
		LogLevel:     v.GetString(KeyLogLevel),
		Format:       strings.ToLower(v.GetString(KeyFormat)),
	}

	if cfg.Format != "json" && cfg.Format != "text" {
		return nil, errors.Errorf("invalid format %q (use json or text)", cfg.Format)
	}
	if strings.TrimSpace(cfg.DefaultModel) == "" {
		return nil, errors.New("default model must not be empty")
	}
	return cfg, nil
}

// loadDotEnv reads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return errors.Wrapf(err, "load %s", path)
}

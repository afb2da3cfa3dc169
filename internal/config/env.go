package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Env holds process settings read from the environment.
type Env struct {
	// DB is the results database path.
	DB string `env:"FARSIGHT_DB" envDefault:"farsight.db"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `env:"FARSIGHT_LOG_LEVEL" envDefault:"warn"`

	// Format is the default output format, text or json.
	Format string `env:"FARSIGHT_FORMAT" envDefault:"text"`
}

// ParseEnv loads settings from environment variables.
func ParseEnv() (Env, error) {
	var cfg Env
	if err := env.Parse(&cfg); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// SlogLevel converts LogLevel to a slog level.
func (e Env) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(e.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning", "":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("invalid log level %q", e.LogLevel)
	}
}

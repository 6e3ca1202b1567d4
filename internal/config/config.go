// Package config loads FocusQuest runtime settings from the environment and
// game balance from presets or a YAML file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DBDriver      string        `env:"FOCUSQUEST_DB_DRIVER" envDefault:"sqlite"`
	DBDSN         string        `env:"FOCUSQUEST_DB_DSN"`
	RedisAddr     string        `env:"FOCUSQUEST_REDIS_ADDR"`
	RedisPassword string        `env:"FOCUSQUEST_REDIS_PASSWORD"`
	RedisDB       int           `env:"FOCUSQUEST_REDIS_DB" envDefault:"0"`
	LockTTL       time.Duration `env:"FOCUSQUEST_LOCK_TTL" envDefault:"10s"`
	BalanceFile   string        `env:"FOCUSQUEST_BALANCE_FILE"`
	Difficulty    string        `env:"FOCUSQUEST_DIFFICULTY" envDefault:"normal"`
	User          string        `env:"FOCUSQUEST_USER"`
	TZ            string        `env:"FOCUSQUEST_TZ" envDefault:"Local"`
	LogLevel      string        `env:"FOCUSQUEST_LOG_LEVEL" envDefault:"warn"`
	LogFormat     string        `env:"FOCUSQUEST_LOG_FORMAT" envDefault:"text"`
}

// Load reads Config from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// LoadFrom reads Config from the given variables only.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Location resolves the calendar zone used for due dates and penalties.
func (c Config) Location() (*time.Location, error) {
	switch c.TZ {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.TZ, err)
	}
	return loc, nil
}

// Balance returns the difficulty preset overlaid with BalanceFile, if set.
func (c Config) Balance() (Balance, error) {
	base, err := Preset(c.Difficulty)
	if err != nil {
		return Balance{}, err
	}
	if c.BalanceFile == "" {
		return base, nil
	}
	return LoadBalanceFile(c.BalanceFile, base)
}

// Logger builds the process logger writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Package config loads staticd settings from defaults and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/threadpool"
)

const AppName = "staticd"

var ErrInvalidConfig = errors.New(AppName + ": invalid configuration")

// Config holds everything the server needs. Port, PoolSize and MaxConnections are
// normally overridden by the positional CLI arguments.
type Config struct {
	Port           int           `koanf:"port"`
	PoolSize       int           `koanf:"pool_size"`
	MaxConnections int           `koanf:"max_connections"` // 0 serves until interrupted
	Root           string        `koanf:"root"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	MaxQueueLength int           `koanf:"max_queue_length"` // 0 is unbounded
	AcceptRate     float64       `koanf:"accept_rate"`      // connections per second, 0 disables
	AcceptBurst    int           `koanf:"accept_burst"`
	MetricsAddr    string        `koanf:"metrics_addr"`
	AccessLogDB    string        `koanf:"access_log_db"`
	LogLevel       string        `koanf:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:           8080,
		PoolSize:       10,
		MaxConnections: 0,
		Root:           ".",
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxQueueLength: 0,
		AcceptRate:     0,
		AcceptBurst:    1,
		MetricsAddr:    "",
		AccessLogDB:    "",
		LogLevel:       "info",
	}
}

// Load reads path over the defaults. With an empty path it looks for
// $XDG_CONFIG_HOME/staticd/config.yaml and falls back to defaults when there is none.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		found, err := xdg.SearchConfigFile(filepath.Join(AppName, "config.yaml"))
		if err != nil {
			return cfg, nil
		}
		path = found
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges and that Root is a readable directory.
func (c *Config) Validate() error {
	switch {
	case c.Port < 1 || c.Port > 65535:
		return invalid("port", strconv.Itoa(c.Port))
	case c.PoolSize < 1 || c.PoolSize > threadpool.MaxPoolSize:
		return invalid("pool_size", strconv.Itoa(c.PoolSize))
	case c.MaxConnections < 0:
		return invalid("max_connections", strconv.Itoa(c.MaxConnections))
	case c.MaxQueueLength < 0:
		return invalid("max_queue_length", strconv.Itoa(c.MaxQueueLength))
	case c.ReadTimeout < 0:
		return invalid("read_timeout", c.ReadTimeout.String())
	case c.WriteTimeout < 0:
		return invalid("write_timeout", c.WriteTimeout.String())
	case c.AcceptRate < 0:
		return invalid("accept_rate", strconv.FormatFloat(c.AcceptRate, 'f', -1, 64))
	case c.AcceptRate > 0 && c.AcceptBurst < 1:
		return invalid("accept_burst", strconv.Itoa(c.AcceptBurst))
	}

	if _, err := c.Level(); err != nil {
		return invalid("log_level", c.LogLevel)
	}

	fi, err := os.Stat(c.Root)
	if err != nil {
		return errorc.With(ErrInvalidConfig, errorc.String("root", c.Root), errorc.String("reason", err.Error()))
	}
	if !fi.IsDir() {
		return errorc.With(ErrInvalidConfig, errorc.String("root", c.Root), errorc.String("reason", "not a directory"))
	}
	return nil
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(c.LogLevel))
	return l, err
}

func invalid(key, value string) error {
	return errorc.With(ErrInvalidConfig, errorc.String(key, value))
}

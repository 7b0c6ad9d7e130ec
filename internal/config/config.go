// Package config loads the corobus CLI configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config describes one workload run: how many channels to open, how the
// producers feed them, and how the process reports what happened.
type Config struct {
	Channels    int    `yaml:"channels"`
	Capacity    int    `yaml:"capacity"`
	Producers   int    `yaml:"producers"`
	Messages    int    `yaml:"messages"`
	Batch       int    `yaml:"batch"`
	Broadcast   bool   `yaml:"broadcast"`
	MaxTasks    int    `yaml:"maxTasks"`
	LogLevel    string `yaml:"logLevel"`
	MetricsAddr string `yaml:"metricsAddr"`
}

func DefaultConfig() Config {
	return Config{
		Channels:  4,
		Capacity:  8,
		Producers: 2,
		Messages:  1000,
		Batch:     16,
		LogLevel:  "info",
	}
}

// Load reads and parses the config file at path on top of DefaultConfig.
// A missing file, or an empty path, yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Channels <= 0:
		return fmt.Errorf("channels must be positive, got %d", c.Channels)
	case c.Capacity < 0:
		return fmt.Errorf("capacity must not be negative, got %d", c.Capacity)
	case c.Producers <= 0:
		return fmt.Errorf("producers must be positive, got %d", c.Producers)
	case c.Messages < 0:
		return fmt.Errorf("messages must not be negative, got %d", c.Messages)
	case c.Batch <= 0:
		return fmt.Errorf("batch must be positive, got %d", c.Batch)
	case c.MaxTasks < 0:
		return fmt.Errorf("maxTasks must not be negative, got %d", c.MaxTasks)
	case c.MaxTasks > 0 && c.MaxTasks <= c.Channels:
		// consumers start first and hold their slots until the channels close
		return fmt.Errorf("maxTasks %d leaves no room for a producer beside %d consumers", c.MaxTasks, c.Channels)
	case c.Capacity == 0 && c.Messages > 0:
		// a zero-capacity channel never accepts a value
		return errors.New("capacity 0 cannot carry messages")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level maps LogLevel to a slog level.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

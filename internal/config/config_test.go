package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corobus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/corobus.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
channels: 3
capacity: 2
broadcast: true
logLevel: debug
metricsAddr: ":9090"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Channels)
	assert.Equal(t, 2, cfg.Capacity)
	assert.True(t, cfg.Broadcast)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, DefaultConfig().Messages, cfg.Messages)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "channels: [oops")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"no channels":       func(c *Config) { c.Channels = 0 },
		"negative capacity": func(c *Config) { c.Capacity = -1 },
		"zero capacity":     func(c *Config) { c.Capacity = 0 },
		"no producers":      func(c *Config) { c.Producers = 0 },
		"zero batch":        func(c *Config) { c.Batch = 0 },
		"bad level":         func(c *Config) { c.LogLevel = "loud" },
		"too few tasks":     func(c *Config) { c.MaxTasks = 4 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	// one spare slot is enough, producers take turns in it
	cfg.MaxTasks = cfg.Channels + 1
	assert.NoError(t, cfg.Validate())
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":25565", cfg.Server.ListenAddr)
	assert.True(t, cfg.Server.OnlineMode)
	assert.Equal(t, 256, cfg.Server.CompressionThreshold)
	assert.Equal(t, 15*time.Second, cfg.Server.KeepAliveInterval)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, ":8080", cfg.API.ListenAddr)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_addr: ":25570"
  online_mode: false
  compression_threshold: -1
  motd: "integration rig"
session:
  session_url: "http://127.0.0.1:9100"
  timeout: 3s
cache:
  enabled: false
api:
  listen_addr: ":9090"
  rate_limit: 10
log:
  level: debug
  pretty: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":25570", cfg.Server.ListenAddr)
	assert.False(t, cfg.Server.OnlineMode)
	assert.Equal(t, -1, cfg.Server.CompressionThreshold)
	assert.Equal(t, "integration rig", cfg.Server.MOTD)
	assert.Equal(t, "http://127.0.0.1:9100", cfg.Session.SessionURL)
	assert.Equal(t, 3*time.Second, cfg.Session.Timeout)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, ":9090", cfg.API.ListenAddr)
	assert.Equal(t, 10, cfg.API.RateLimit)
	assert.True(t, cfg.Log.Pretty)

	// Unset sections keep their defaults.
	assert.Equal(t, 20, cfg.Server.MaxPlayers)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults pass",
			mutate: func(*Config) {},
		},
		{
			name:    "empty listen addr",
			mutate:  func(c *Config) { c.Server.ListenAddr = " " },
			wantErr: "listen_addr",
		},
		{
			name:    "threshold below -1",
			mutate:  func(c *Config) { c.Server.CompressionThreshold = -2 },
			wantErr: "compression_threshold",
		},
		{
			name:    "zero max players",
			mutate:  func(c *Config) { c.Server.MaxPlayers = 0 },
			wantErr: "max_players",
		},
		{
			name: "online mode without key path",
			mutate: func(c *Config) {
				c.Server.OnlineMode = true
				c.Server.KeyPath = ""
			},
			wantErr: "key_path",
		},
		{
			name: "cache without path",
			mutate: func(c *Config) {
				c.Cache.Enabled = true
				c.Cache.Path = ""
			},
			wantErr: "cache.path",
		},
		{
			name: "api without addr",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.API.ListenAddr = ""
			},
			wantErr: "api.listen_addr",
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *Config) { c.API.RateLimit = -1 },
			wantErr: "rate_limit",
		},
		{
			name: "disabled api skips addr check",
			mutate: func(c *Config) {
				c.API.Enabled = false
				c.API.ListenAddr = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

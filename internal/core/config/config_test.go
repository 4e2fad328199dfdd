package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoad_ParsesFile(t *testing.T) {
	path := writeConfig(t, `
source:
  kind: http
  base_url: https://reviews.example.com/api
  rate_limit: 3
  timeout: 5s
  breaker:
    max_requests: 2
    interval: 10s
    timeout: 15s
    failure_ratio: 0.25
    min_requests: 4
feed:
  page_limit: 10
  max_lines: 0
cache:
  capacity: 50
  workers: 2
tui:
  theme: gruvbox
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, SourceHTTP, cfg.Source.Kind)
	assert.Equal(t, "https://reviews.example.com/api", cfg.Source.BaseURL)
	assert.Equal(t, 3, cfg.Source.RateLimit)
	assert.Equal(t, 5*time.Second, cfg.Source.Timeout)
	assert.Equal(t, BreakerConfig{
		MaxRequests:  2,
		Interval:     10 * time.Second,
		Timeout:      15 * time.Second,
		FailureRatio: 0.25,
		MinRequests:  4,
	}, cfg.Source.Breaker)
	assert.Equal(t, 10, cfg.Feed.PageLimit)
	assert.Equal(t, 0, cfg.Feed.MaxLines, "explicit zero means unlimited")
	assert.Equal(t, CacheConfig{Capacity: 50, Workers: 2}, cfg.Cache)
	assert.Equal(t, "gruvbox", cfg.TUI.Theme)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
feed:
  page_limit: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	defaults := DefaultConfig()
	assert.Equal(t, 5, cfg.Feed.PageLimit)
	assert.Equal(t, defaults.Feed.MaxLines, cfg.Feed.MaxLines)
	assert.Equal(t, defaults.Source, cfg.Source)
	assert.Equal(t, defaults.Cache, cfg.Cache)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "bad yaml", content: "source: [", wantErr: "parse config file"},
		{name: "bad kind", content: "source:\n  kind: ftp", wantErr: "source.kind"},
		{name: "bad duration", content: "source:\n  timeout: soon", wantErr: "parse config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "http without base url", mutate: func(c *Config) { c.Source.Kind = SourceHTTP; c.Source.BaseURL = "" }, wantErr: "base_url is required"},
		{name: "http zero rate limit", mutate: func(c *Config) { c.Source.Kind = SourceHTTP; c.Source.RateLimit = 0 }, wantErr: "rate_limit"},
		{name: "http bad failure ratio", mutate: func(c *Config) { c.Source.Kind = SourceHTTP; c.Source.Breaker.FailureRatio = 2 }, wantErr: "failure_ratio"},
		{name: "file without path", mutate: func(c *Config) { c.Source.File = "" }, wantErr: "source.file is required"},
		{name: "negative latency", mutate: func(c *Config) { c.Source.LatencyMin = -time.Second }, wantErr: "latency_min"},
		{name: "inverted latency", mutate: func(c *Config) { c.Source.LatencyMax = 0 }, wantErr: "latency_max"},
		{name: "page limit too small", mutate: func(c *Config) { c.Feed.PageLimit = 0 }, wantErr: "page_limit"},
		{name: "page limit too large", mutate: func(c *Config) { c.Feed.PageLimit = 101 }, wantErr: "page_limit"},
		{name: "negative max lines", mutate: func(c *Config) { c.Feed.MaxLines = -1 }, wantErr: "max_lines"},
		{name: "unlimited max lines", mutate: func(c *Config) { c.Feed.MaxLines = 0 }},
		{name: "zero capacity", mutate: func(c *Config) { c.Cache.Capacity = 0 }, wantErr: "cache.capacity"},
		{name: "zero workers", mutate: func(c *Config) { c.Cache.Workers = 0 }, wantErr: "cache.workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

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

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "reviews", "config.yaml"), DefaultPath())
}

func TestSourceKind_IsValid(t *testing.T) {
	assert.True(t, SourceHTTP.IsValid())
	assert.True(t, SourceFile.IsValid())
	assert.False(t, SourceKind("grpc").IsValid())
}

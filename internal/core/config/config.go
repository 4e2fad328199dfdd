// Package config handles configuration loading and validation for reviews.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// SourceKind selects where reviews are fetched from.
type SourceKind string

// Supported source kinds.
const (
	SourceHTTP SourceKind = "http"
	SourceFile SourceKind = "file"
)

// IsValid checks if the kind is supported.
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceHTTP, SourceFile:
		return true
	default:
		return false
	}
}

// Config holds the application configuration.
type Config struct {
	Source SourceConfig `yaml:"source"`
	Feed   FeedConfig   `yaml:"feed"`
	Cache  CacheConfig  `yaml:"cache"`
	TUI    TUIConfig    `yaml:"tui"`
}

// SourceConfig configures the review source.
type SourceConfig struct {
	Kind SourceKind `yaml:"kind"`

	// http
	BaseURL   string        `yaml:"base_url"`
	RateLimit int           `yaml:"rate_limit"` // requests per second
	Timeout   time.Duration `yaml:"timeout"`
	Breaker   BreakerConfig `yaml:"breaker"`

	// file
	File       string        `yaml:"file"`
	AssetsDir  string        `yaml:"assets_dir"`
	LatencyMin time.Duration `yaml:"latency_min"`
	LatencyMax time.Duration `yaml:"latency_max"`
}

// BreakerConfig configures the circuit breaker of the HTTP source.
type BreakerConfig struct {
	MaxRequests  uint32        `yaml:"max_requests"`
	Interval     time.Duration `yaml:"interval"`
	Timeout      time.Duration `yaml:"timeout"`
	FailureRatio float64       `yaml:"failure_ratio"`
	MinRequests  uint32        `yaml:"min_requests"`
}

// FeedConfig configures paging and text clamping.
type FeedConfig struct {
	PageLimit int `yaml:"page_limit"`
	// MaxLines clamps review text; 0 shows full text.
	MaxLines int `yaml:"max_lines"`
}

// CacheConfig configures the image cache and asset loading.
type CacheConfig struct {
	Capacity int `yaml:"capacity"`
	Workers  int `yaml:"workers"` // max in-flight asset fetches
}

// TUIConfig configures the terminal view.
type TUIConfig struct {
	Theme string `yaml:"theme"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Source: SourceConfig{
			Kind:       SourceFile,
			BaseURL:    "http://localhost:8085",
			RateLimit:  10,
			Timeout:    20 * time.Second,
			File:       filepath.Join("testdata", "getReviews.response.json"),
			LatencyMin: 100 * time.Millisecond,
			LatencyMax: time.Second,
			Breaker: BreakerConfig{
				MaxRequests:  1,
				Interval:     60 * time.Second,
				Timeout:      30 * time.Second,
				FailureRatio: 0.5,
				MinRequests:  5,
			},
		},
		Feed: FeedConfig{
			PageLimit: 20,
			MaxLines:  3,
		},
		Cache: CacheConfig{
			Capacity: 100,
			Workers:  8,
		},
		TUI: TUIConfig{
			Theme: "tokyo-night",
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/reviews/config.yaml, falling back to
// ~/.config.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "reviews", "config.yaml")
}

// Load reads configuration from the given path.
// If configPath is empty or doesn't exist, returns defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	// Apply defaults for zero values
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
// MaxLines is left alone since zero is meaningful.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Source.Kind == "" {
		c.Source.Kind = defaults.Source.Kind
	}
	if c.Source.RateLimit == 0 {
		c.Source.RateLimit = defaults.Source.RateLimit
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = defaults.Source.Timeout
	}
	if c.Source.Breaker == (BreakerConfig{}) {
		c.Source.Breaker = defaults.Source.Breaker
	}
	if c.Feed.PageLimit == 0 {
		c.Feed.PageLimit = defaults.Feed.PageLimit
	}
	if c.Cache.Capacity == 0 {
		c.Cache.Capacity = defaults.Cache.Capacity
	}
	if c.Cache.Workers == 0 {
		c.Cache.Workers = defaults.Cache.Workers
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = defaults.TUI.Theme
	}
}

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	if !c.Source.Kind.IsValid() {
		return fmt.Errorf("source.kind %q must be %q or %q", c.Source.Kind, SourceHTTP, SourceFile)
	}

	switch c.Source.Kind {
	case SourceHTTP:
		if c.Source.BaseURL == "" {
			return fmt.Errorf("source.base_url is required for the http source")
		}
		if c.Source.RateLimit < 1 {
			return fmt.Errorf("source.rate_limit must be at least 1")
		}
		if r := c.Source.Breaker.FailureRatio; r <= 0 || r > 1 {
			return fmt.Errorf("source.breaker.failure_ratio must be in (0, 1], got %v", r)
		}
	case SourceFile:
		if c.Source.File == "" {
			return fmt.Errorf("source.file is required for the file source")
		}
		if c.Source.LatencyMin < 0 {
			return fmt.Errorf("source.latency_min cannot be negative")
		}
		if c.Source.LatencyMax < c.Source.LatencyMin {
			return fmt.Errorf("source.latency_max must not be below source.latency_min")
		}
	}

	if c.Feed.PageLimit < 1 || c.Feed.PageLimit > 100 {
		return fmt.Errorf("feed.page_limit must be between 1 and 100")
	}
	if c.Feed.MaxLines < 0 {
		return fmt.Errorf("feed.max_lines cannot be negative")
	}

	if c.Cache.Capacity < 1 {
		return fmt.Errorf("cache.capacity must be at least 1")
	}
	if c.Cache.Workers < 1 {
		return fmt.Errorf("cache.workers must be at least 1")
	}

	return nil
}

package diarygrid

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"diarygrid/internal/letterboxd"
)

// Config is the top-level pipeline configuration.
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Browser BrowserConfig `yaml:"browser"`
	Cache   CacheConfig   `yaml:"cache"`
}

// SourceConfig controls how the source site is fetched.
type SourceConfig struct {
	BaseURL       string        `yaml:"base_url"`
	MaxAttempts   int           `yaml:"max_attempts"`
	PageDelay     time.Duration `yaml:"page_delay"`
	TeardownAfter int           `yaml:"teardown_after"`
}

// BrowserConfig controls the automation fallback.
type BrowserConfig struct {
	// Remote is the WebSocket URL of an external Chrome. Empty = launch
	// a local one on first use.
	Remote           string   `yaml:"remote"`
	BlockedResources []string `yaml:"blocked_resources"`
}

// CacheConfig controls the optional fetched-page cache. An empty path
// disables caching.
type CacheConfig struct {
	Path string        `yaml:"path"`
	TTL  time.Duration `yaml:"ttl"`
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Source.BaseURL == "" {
		c.Source.BaseURL = letterboxd.BaseURL
	}
	if c.Source.MaxAttempts <= 0 {
		c.Source.MaxAttempts = 6
	}
	if c.Source.PageDelay <= 0 {
		c.Source.PageDelay = 2 * time.Second
	}
	if c.Source.TeardownAfter <= 0 {
		c.Source.TeardownAfter = 3
	}
	if c.Browser.BlockedResources == nil {
		c.Browser.BlockedResources = []string{"images", "fonts", "media"}
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = time.Hour
	}
}

// Package config provides configuration loading and management for airtrack.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete airtrack configuration
type Config struct {
	Author  string        `yaml:"author"`
	Repo    RepoConfig    `yaml:"repo"`
	NATS    NATSConfig    `yaml:"nats"`
	Metrics MetricsConfig `yaml:"metrics"`
	Watch   WatchConfig   `yaml:"watch"`
	Import  ImportConfig  `yaml:"import"`
}

// RepoConfig configures the repository settings
type RepoConfig struct {
	// Path is the repository root path (auto-detected from git if empty)
	Path string `yaml:"path"`
}

// NATSConfig configures the event stream connection
type NATSConfig struct {
	// URL is the NATS server URL (empty = events disabled)
	URL string `yaml:"url"`
}

// MetricsConfig configures the metrics endpoint in serve mode
type MetricsConfig struct {
	// Addr is the listen address for /metrics (default: :9187)
	Addr string `yaml:"addr"`
}

// WatchConfig configures the tree watcher
type WatchConfig struct {
	// Debounce is how long to wait for more changes before flushing
	Debounce time.Duration `yaml:"debounce"`
}

// ImportConfig configures the playbook URL importer
type ImportConfig struct {
	// Timeout is the maximum time for one import fetch
	Timeout time.Duration `yaml:"timeout"`
	// MaxContentSize caps an imported page in bytes
	MaxContentSize int64 `yaml:"max_content_size"`
	// UserAgent sent on import requests
	UserAgent string `yaml:"user_agent"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Author: "",
		Repo: RepoConfig{
			Path: "", // Auto-detect
		},
		NATS: NATSConfig{
			URL: "",
		},
		Metrics: MetricsConfig{
			Addr: ":9187",
		},
		Watch: WatchConfig{
			Debounce: 100 * time.Millisecond,
		},
		Import: ImportConfig{
			Timeout:        30 * time.Second,
			MaxContentSize: 5 * 1024 * 1024,
			UserAgent:      "airtrack-playbook/1.0",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if c.Import.Timeout <= 0 {
		return fmt.Errorf("import.timeout must be positive")
	}
	if c.Import.MaxContentSize <= 0 {
		return fmt.Errorf("import.max_content_size must be positive")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Author != "" {
		c.Author = other.Author
	}

	if other.Repo.Path != "" {
		c.Repo.Path = other.Repo.Path
	}

	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}

	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
	}

	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}

	if other.Import.Timeout != 0 {
		c.Import.Timeout = other.Import.Timeout
	}
	if other.Import.MaxContentSize != 0 {
		c.Import.MaxContentSize = other.Import.MaxContentSize
	}
	if other.Import.UserAgent != "" {
		c.Import.UserAgent = other.Import.UserAgent
	}
}

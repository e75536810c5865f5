package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Metrics.Addr != ":9187" {
		t.Errorf("expected default metrics addr :9187, got %s", cfg.Metrics.Addr)
	}
	if cfg.Watch.Debounce != 100*time.Millisecond {
		t.Errorf("expected default debounce 100ms, got %v", cfg.Watch.Debounce)
	}
	if cfg.Import.Timeout != 30*time.Second {
		t.Errorf("expected default import timeout 30s, got %v", cfg.Import.Timeout)
	}
	if cfg.NATS.URL != "" {
		t.Errorf("expected events disabled by default, got NATS URL %s", cfg.NATS.URL)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing metrics addr",
			modify:  func(c *Config) { c.Metrics.Addr = "" },
			wantErr: true,
		},
		{
			name:    "negative debounce",
			modify:  func(c *Config) { c.Watch.Debounce = -time.Second },
			wantErr: true,
		},
		{
			name:    "zero import timeout",
			modify:  func(c *Config) { c.Import.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "zero content cap",
			modify:  func(c *Config) { c.Import.MaxContentSize = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
author: "dana"
repo:
  path: "/test/path"
nats:
  url: "nats://test:4222"
metrics:
  addr: ":9999"
watch:
  debounce: 250ms
import:
  timeout: 10s
  max_content_size: 1048576
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Author != "dana" {
		t.Errorf("expected author dana, got %s", cfg.Author)
	}
	if cfg.Repo.Path != "/test/path" {
		t.Errorf("expected repo path /test/path, got %s", cfg.Repo.Path)
	}
	if cfg.NATS.URL != "nats://test:4222" {
		t.Errorf("expected NATS URL nats://test:4222, got %s", cfg.NATS.URL)
	}
	if cfg.Metrics.Addr != ":9999" {
		t.Errorf("expected metrics addr :9999, got %s", cfg.Metrics.Addr)
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("expected debounce 250ms, got %v", cfg.Watch.Debounce)
	}
	if cfg.Import.Timeout != 10*time.Second {
		t.Errorf("expected import timeout 10s, got %v", cfg.Import.Timeout)
	}
	if cfg.Import.MaxContentSize != 1048576 {
		t.Errorf("expected content cap 1048576, got %d", cfg.Import.MaxContentSize)
	}
	// Unset fields keep their defaults.
	if cfg.Import.UserAgent != "airtrack-playbook/1.0" {
		t.Errorf("expected default user agent, got %s", cfg.Import.UserAgent)
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Author: "sasha",
		NATS: NATSConfig{
			URL: "nats://override:4222",
		},
	}

	base.Merge(override)

	if base.Author != "sasha" {
		t.Errorf("expected author sasha, got %s", base.Author)
	}
	if base.NATS.URL != "nats://override:4222" {
		t.Errorf("expected overridden NATS URL, got %s", base.NATS.URL)
	}
	// Metrics addr should remain from base since override didn't set it
	if base.Metrics.Addr != ":9187" {
		t.Errorf("expected metrics addr to remain default, got %s", base.Metrics.Addr)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Author = "saved-author"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Author != "saved-author" {
		t.Errorf("expected author saved-author, got %s", loaded.Author)
	}
}

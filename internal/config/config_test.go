package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 4000 {
		t.Errorf("default port = %d, want 4000", cfg.Server.Port)
	}
	if cfg.Server.PublicBaseURL != "http://localhost:4000" {
		t.Errorf("default base url = %q", cfg.Server.PublicBaseURL)
	}
	if cfg.Database.Path != "./data/secureprint.db" {
		t.Errorf("default db path = %q", cfg.Database.Path)
	}
	if cfg.Webhooks.RetryCount != 3 || cfg.Webhooks.WorkerCount != 3 {
		t.Errorf("webhook defaults: %+v", cfg.Webhooks)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default log level = %q", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
  read_timeout: 15s
  public_base_url: https://print.example.com
database:
  path: /var/lib/secureprint/jobs.db
webhooks:
  retry_count: 5
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("read timeout = %v, want 15s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.PublicBaseURL != "https://print.example.com" {
		t.Errorf("base url = %q", cfg.Server.PublicBaseURL)
	}
	if cfg.Database.Path != "/var/lib/secureprint/jobs.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
	if cfg.Webhooks.RetryCount != 5 {
		t.Errorf("retry count = %d, want 5", cfg.Webhooks.RetryCount)
	}
	// Unset keys keep their defaults.
	if cfg.Webhooks.WorkerCount != 3 {
		t.Errorf("worker count = %d, want default 3", cfg.Webhooks.WorkerCount)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SECUREPRINT_PORT", "8181")
	t.Setenv("SECUREPRINT_DB_PATH", "/tmp/override.db")
	t.Setenv("SECUREPRINT_PUBLIC_BASE_URL", "https://override.example.com")
	t.Setenv("SECUREPRINT_LOG_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8181 {
		t.Errorf("port = %d, want 8181", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
	if cfg.Server.PublicBaseURL != "https://override.example.com" {
		t.Errorf("base url = %q", cfg.Server.PublicBaseURL)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error for malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too low", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"negative read timeout", func(c *Config) { c.Server.ReadTimeout = -time.Second }},
		{"empty base url", func(c *Config) { c.Server.PublicBaseURL = "" }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"negative retry count", func(c *Config) { c.Webhooks.RetryCount = -1 }},
		{"zero workers", func(c *Config) { c.Webhooks.WorkerCount = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

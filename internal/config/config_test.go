package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %q", cfg.Port)
	}
	if cfg.ArchiveBackend != ArchiveSQLite {
		t.Errorf("Expected sqlite backend by default, got %q", cfg.ArchiveBackend)
	}
	if cfg.Generation.RequestTimeout != 120*time.Second {
		t.Errorf("Expected 120s generation timeout, got %v", cfg.Generation.RequestTimeout)
	}
	if len(cfg.Seed.URLs) == 0 {
		t.Error("Expected default seed URLs")
	}
	if !cfg.Audit.Enabled {
		t.Error("Expected audit log enabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("ARCHIVE_BACKEND", "file")
	t.Setenv("ARCHIVE_PATH", "/tmp/creations.json")
	t.Setenv("SEED_URLS", "https://a.example/x.json, https://a.example/y.json")
	t.Setenv("GENAI_TIMEOUT_SECONDS", "30")
	t.Setenv("AUDIT_LOG_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "9999" {
		t.Errorf("Expected port override, got %q", cfg.Port)
	}
	if cfg.ArchiveBackend != ArchiveFile {
		t.Errorf("Expected file backend, got %q", cfg.ArchiveBackend)
	}
	if len(cfg.Seed.URLs) != 2 || cfg.Seed.URLs[1] != "https://a.example/y.json" {
		t.Errorf("Expected parsed seed URL list, got %v", cfg.Seed.URLs)
	}
	if cfg.Generation.RequestTimeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", cfg.Generation.RequestTimeout)
	}
	if cfg.Audit.Enabled {
		t.Error("Expected audit log disabled")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("ARCHIVE_BACKEND", "s3")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error for unknown archive backend")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"empty port", func(c *Config) { c.Port = "" }, true},
		{"sqlite without path", func(c *Config) { c.DBPath = "" }, true},
		{"file without path", func(c *Config) {
			c.ArchiveBackend = ArchiveFile
			c.ArchivePath = ""
		}, true},
		{"zero upload limit", func(c *Config) { c.MaxUploadBytes = 0 }, true},
		{"empty model", func(c *Config) { c.Generation.Model = "" }, true},
		{"audit enabled without path", func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.Path = ""
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Port:           "8080",
				ArchiveBackend: ArchiveSQLite,
				DBPath:         "./data/creations.db",
				ArchivePath:    "./data/creations.json",
				MaxUploadBytes: 1 << 20,
				Generation: GenerationConfig{
					Model:          "gemini-2.5-flash",
					RequestTimeout: time.Minute,
				},
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
		})
	}
}

func TestIsDevelopment(t *testing.T) {
	tests := []struct {
		frontendURL string
		want        bool
	}{
		{"", true},
		{"http://localhost:3000", true},
		{"http://127.0.0.1:3000", true},
		{"https://appforge.example.com", false},
	}

	for _, tt := range tests {
		cfg := &Config{FrontendURL: tt.frontendURL}
		if got := cfg.IsDevelopment(); got != tt.want {
			t.Errorf("IsDevelopment with %q = %v, want %v", tt.frontendURL, got, tt.want)
		}
	}
}

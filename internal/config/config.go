// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Archive backends.
const (
	ArchiveSQLite = "sqlite"
	ArchiveFile   = "file"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	FrontendURL    string
	ArchiveBackend string // "sqlite" or "file"
	DBPath         string
	ArchivePath    string
	MaxUploadBytes int64
	Generation     GenerationConfig
	Seed           SeedConfig
	Audit          AuditConfig
}

// GenerationConfig configures the generation backend client.
type GenerationConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	RequestTimeout time.Duration
}

// SeedConfig controls first-run example seeding.
type SeedConfig struct {
	URLs    []string
	Timeout time.Duration
}

// AuditConfig controls NDJSON generation-attempt logging.
type AuditConfig struct {
	Enabled   bool
	Path      string
	QueueSize int
}

// defaultSeedURLs is the fixed example set fetched when no archive exists.
var defaultSeedURLs = []string{
	"https://examples.appforge.dev/creations/pomodoro-timer.json",
	"https://examples.appforge.dev/creations/chess-clock.json",
	"https://examples.appforge.dev/creations/color-mixer.json",
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	queueSize := getEnvInt("AUDIT_LOG_QUEUE_SIZE", 256)
	if queueSize <= 0 {
		queueSize = 256
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", ""),
		ArchiveBackend: strings.ToLower(getEnv("ARCHIVE_BACKEND", ArchiveSQLite)),
		DBPath:         getEnv("DB_PATH", "./data/creations.db"),
		ArchivePath:    getEnv("ARCHIVE_PATH", "./data/creations.json"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 20<<20)),
		Generation: GenerationConfig{
			BaseURL:        getEnv("GENAI_BASE_URL", "https://generativelanguage.googleapis.com"),
			APIKey:         getEnv("GENAI_API_KEY", ""),
			Model:          getEnv("GENAI_MODEL", "gemini-2.5-flash"),
			RequestTimeout: time.Duration(getEnvInt("GENAI_TIMEOUT_SECONDS", 120)) * time.Second,
		},
		Seed: SeedConfig{
			URLs:    getEnvList("SEED_URLS", defaultSeedURLs),
			Timeout: time.Duration(getEnvInt("SEED_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		Audit: AuditConfig{
			Enabled:   getEnvBool("AUDIT_LOG_ENABLED", true),
			Path:      getEnv("AUDIT_LOG_PATH", "./data/logs/generations.ndjson"),
			QueueSize: queueSize,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	switch c.ArchiveBackend {
	case ArchiveSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty")
		}
	case ArchiveFile:
		if c.ArchivePath == "" {
			return fmt.Errorf("ARCHIVE_PATH cannot be empty")
		}
	default:
		return fmt.Errorf("ARCHIVE_BACKEND must be %q or %q", ArchiveSQLite, ArchiveFile)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be > 0")
	}
	if c.Generation.Model == "" {
		return fmt.Errorf("GENAI_MODEL cannot be empty")
	}
	if c.Generation.RequestTimeout <= 0 {
		return fmt.Errorf("GENAI_TIMEOUT_SECONDS must be > 0")
	}
	if c.Audit.Enabled && c.Audit.Path == "" {
		return fmt.Errorf("AUDIT_LOG_PATH cannot be empty")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if out == nil {
		return fallback
	}
	return out
}

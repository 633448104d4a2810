package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	SQLFile          string
	UploadsDir       string
	StrapiUploadsDir string

	StrapiURL   string
	StrapiToken string
	HTTPTimeout time.Duration

	DatabaseURL      string
	StageSchema      string
	BatchSize        int
	StageConcurrency int
	QueryTimeout     time.Duration

	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	LogLevel  string
	LogFormat string

	dbURL *url.URL // Parsed database URL, nil when DATABASE_URL is unset
}

// Load reads configuration from .env files and environment variables.
// With no files given it loads ./.env when present; named files must load.
// Load only parses values. Call Validate once any overrides are applied.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		// Load .env file if it exists (silently ignore if missing)
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &Config{
		SQLFile:          getenv("SQL_FILE", "data/dump.sql"),
		UploadsDir:       getenv("UPLOADS_DIR", "data/uploads"),
		StrapiUploadsDir: getenv("STRAPI_UPLOADS_DIR", "public/uploads"),
		StrapiURL:        strings.TrimRight(getenv("STRAPI_URL", "http://localhost:1337"), "/"),
		StrapiToken:      os.Getenv("STRAPI_API_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		StageSchema:      getenv("STAGE_SCHEMA", "mysql_dump"),
		Port:             getenv("PORT", "8080"),
		LogLevel:         strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat:        strings.ToLower(getenv("LOG_FORMAT", "text")),
	}

	var err error
	if cfg.BatchSize, err = getInt("BATCH_SIZE", 50); err != nil {
		return nil, err
	}
	if cfg.StageConcurrency, err = getInt("STAGE_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getDuration("HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.QueryTimeout, err = getDuration("QUERY_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ReadTimeout, err = getDuration("READ_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.WriteTimeout, err = getDuration("WRITE_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL != "" {
		parsedURL, err := url.Parse(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		cfg.dbURL = parsedURL
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
// All failures are reported together.
func (c *Config) Validate() error {
	var errs []string

	if c.BatchSize <= 0 {
		errs = append(errs, "BATCH_SIZE must be positive")
	}
	if c.StageConcurrency <= 0 {
		errs = append(errs, "STAGE_CONCURRENCY must be positive")
	}
	if port, err := strconv.Atoi(c.Port); err != nil || port <= 0 || port > 65535 {
		errs = append(errs, fmt.Sprintf("PORT (%q) must be 1-65535", c.Port))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, "HTTP_TIMEOUT must be positive")
	}
	if c.QueryTimeout <= 0 {
		errs = append(errs, "QUERY_TIMEOUT must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, "SHUTDOWN_TIMEOUT must be positive")
	}
	if u, err := url.Parse(c.StrapiURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("STRAPI_URL (%q) must be an absolute URL", c.StrapiURL))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// RequireDatabase returns an error when no DATABASE_URL is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	return nil
}

// CurrentDatabase returns the database name from the connection URL.
func (c *Config) CurrentDatabase() string {
	if c.dbURL == nil || c.dbURL.Path == "" {
		return ""
	}
	return c.dbURL.Path[1:] // Remove leading slash
}

// String returns a representation safe for logging. Secrets are masked.
func (c *Config) String() string {
	token := ""
	if c.StrapiToken != "" {
		token = "[MASKED]"
	}
	database := ""
	if c.DatabaseURL != "" {
		database = "[MASKED]"
	}
	return fmt.Sprintf(
		"Config{SQLFile: %q, UploadsDir: %q, StrapiURL: %q, StrapiToken: %q, DatabaseURL: %q, StageSchema: %q, BatchSize: %d, Port: %s, LogLevel: %q}",
		c.SQLFile, c.UploadsDir, c.StrapiURL, token, database, c.StageSchema, c.BatchSize, c.Port, c.LogLevel,
	)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

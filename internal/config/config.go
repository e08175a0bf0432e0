package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"issuebrowser/internal/validation"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string
	BaseURL    string

	// GitHub
	GitHubRepository string  // "owner/name"
	GitHubToken      string  // optional; unauthenticated requests get a lower rate limit
	GitHubAPIURL     string  // env: GITHUB_API_URL, for GitHub Enterprise or tests
	GitHubRateLimit  float64 // outbound requests per second
	GitHubMaxRetries int

	// Search
	SearchPageSize  int
	SearchTimeout   time.Duration
	KeywordDebounce time.Duration

	// Rendering
	RenderCacheTTL time.Duration

	// Session
	SessionSecret      string // Used for encrypting cookies (base64, 32 bytes)
	SessionIdleTimeout time.Duration
	RedisURL           string // optional; in-memory session storage when empty

	// CORS
	CORSOrigins string // Comma-separated allowed origins, e.g. "https://example.com,https://app.example.com"

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"

	// Site Branding
	SiteTitle   string // env: SITE_TITLE, default: "Issue Browser"
	SiteTagline string // env: SITE_TAGLINE

	// Path of the optional YAML file
	ConfigFile string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	env := getEnv("ENV", "development")
	defaultFormat := "json"
	if env == "development" || env == "dev" {
		defaultFormat = "text"
	}

	return &Config{
		Env:              env,
		ServerAddr:       getEnv("SERVER_ADDR", ":3000"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:3000"),
		GitHubRepository: getEnv("GITHUB_REPOSITORY", ""),
		GitHubToken:      getEnv("GITHUB_TOKEN", ""),
		GitHubAPIURL:     getEnv("GITHUB_API_URL", "https://api.github.com"),
		GitHubRateLimit:  getEnvFloat("GITHUB_RATE_LIMIT", 5),
		GitHubMaxRetries: getEnvInt("GITHUB_MAX_RETRIES", 3),

		SearchPageSize:  getEnvInt("SEARCH_PAGE_SIZE", 30),
		SearchTimeout:   getEnvDuration("SEARCH_TIMEOUT", 15*time.Second),
		KeywordDebounce: getEnvDuration("KEYWORD_DEBOUNCE", 300*time.Millisecond),
		RenderCacheTTL:  getEnvDuration("RENDER_CACHE_TTL", 10*time.Minute),

		SessionSecret:      getEnv("SESSION_SECRET", ""),
		SessionIdleTimeout: getEnvDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		RedisURL:           getEnv("REDIS_URL", ""),
		CORSOrigins:        getEnv("CORS_ORIGINS", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", defaultFormat),

		SiteTitle:   getEnv("SITE_TITLE", "Issue Browser"),
		SiteTagline: getEnv("SITE_TAGLINE", "Browse issues by label, keyword and sort"),

		ConfigFile: getEnv("CONFIG_FILE", "config.yaml"),
	}
}

// Validate reports every configuration problem found, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	if c.GitHubRepository == "" {
		errs = append(errs, errors.New("GITHUB_REPOSITORY is required"))
	} else if owner, name, ok := strings.Cut(c.GitHubRepository, "/"); !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		errs = append(errs, fmt.Errorf("GITHUB_REPOSITORY must be owner/name, got %q", c.GitHubRepository))
	}
	if ok, msg := validation.ValidateURL(c.GitHubAPIURL); !ok {
		errs = append(errs, fmt.Errorf("GITHUB_API_URL: %s", msg))
	}
	if c.GitHubRateLimit <= 0 {
		errs = append(errs, errors.New("GITHUB_RATE_LIMIT must be positive"))
	}
	if c.GitHubMaxRetries < 0 {
		errs = append(errs, errors.New("GITHUB_MAX_RETRIES must not be negative"))
	}
	if c.SearchPageSize < 1 || c.SearchPageSize > 100 {
		errs = append(errs, fmt.Errorf("SEARCH_PAGE_SIZE must be between 1 and 100, got %d", c.SearchPageSize))
	}
	if c.KeywordDebounce <= 0 {
		errs = append(errs, errors.New("KEYWORD_DEBOUNCE must be positive"))
	}
	if c.SessionIdleTimeout <= 0 {
		errs = append(errs, errors.New("SESSION_IDLE_TIMEOUT must be positive"))
	}
	if !c.IsDev() && c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required outside development"))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return fallback
}

// getEnvDuration accepts Go durations ("300ms", "2m") or a bare number of
// milliseconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// HasToken reports whether GitHub requests are authenticated.
func (c *Config) HasToken() bool {
	return c.GitHubToken != ""
}

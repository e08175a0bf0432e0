package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"issuebrowser/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("KEYWORD_DEBOUNCE", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("SEARCH_PAGE_SIZE", "")

	cfg := Load()

	if cfg.KeywordDebounce != 300*time.Millisecond {
		t.Errorf("KeywordDebounce = %v, want 300ms", cfg.KeywordDebounce)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want text in development", cfg.LogFormat)
	}
	if cfg.SearchPageSize != 30 {
		t.Errorf("SearchPageSize = %d, want 30", cfg.SearchPageSize)
	}
	if !cfg.IsDev() {
		t.Error("expected development environment by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("GITHUB_REPOSITORY", "acme/widgets")
	t.Setenv("GITHUB_RATE_LIMIT", "2.5")
	t.Setenv("KEYWORD_DEBOUNCE", "150")
	t.Setenv("SESSION_IDLE_TIMEOUT", "5m")
	t.Setenv("LOG_FORMAT", "")

	cfg := Load()

	if cfg.GitHubRepository != "acme/widgets" {
		t.Errorf("GitHubRepository = %q", cfg.GitHubRepository)
	}
	if cfg.GitHubRateLimit != 2.5 {
		t.Errorf("GitHubRateLimit = %v, want 2.5", cfg.GitHubRateLimit)
	}
	if cfg.KeywordDebounce != 150*time.Millisecond {
		t.Errorf("KeywordDebounce = %v, want 150ms from bare milliseconds", cfg.KeywordDebounce)
	}
	if cfg.SessionIdleTimeout != 5*time.Minute {
		t.Errorf("SessionIdleTimeout = %v, want 5m", cfg.SessionIdleTimeout)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json outside development", cfg.LogFormat)
	}
}

func validConfig() *Config {
	return &Config{
		Env:                "development",
		GitHubRepository:   "acme/widgets",
		GitHubAPIURL:       "https://api.github.com",
		GitHubRateLimit:    5,
		GitHubMaxRetries:   3,
		SearchPageSize:     30,
		KeywordDebounce:    300 * time.Millisecond,
		SessionIdleTimeout: 30 * time.Minute,
		LogFormat:          "text",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing repository", func(c *Config) { c.GitHubRepository = "" }, "GITHUB_REPOSITORY is required"},
		{"repository without owner", func(c *Config) { c.GitHubRepository = "/widgets" }, "owner/name"},
		{"repository with extra path", func(c *Config) { c.GitHubRepository = "acme/widgets/extra" }, "owner/name"},
		{"api url without scheme", func(c *Config) { c.GitHubAPIURL = "api.github.com" }, "GITHUB_API_URL"},
		{"page size too large", func(c *Config) { c.SearchPageSize = 101 }, "SEARCH_PAGE_SIZE"},
		{"zero debounce", func(c *Config) { c.KeywordDebounce = 0 }, "KEYWORD_DEBOUNCE"},
		{"secret required in production", func(c *Config) { c.Env = "production" }, "SESSION_SECRET"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.GitHubRepository = ""
	cfg.LogFormat = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"GITHUB_REPOSITORY", "LOG_FORMAT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadYAMLConfigMissingFile(t *testing.T) {
	cfg, err := LoadYAMLConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Fatalf("expected nil config, got %+v", cfg)
	}

	// A nil config still answers with defaults.
	if got := cfg.DefaultSortField(); got != models.SortCreated {
		t.Errorf("DefaultSortField() = %q, want created", got)
	}
	if got := cfg.SortLabels()[models.SortComments]; got != "Most Comments" {
		t.Errorf("SortLabels()[comments] = %q", got)
	}
	if got := cfg.HiddenCategories(); len(got) != 0 {
		t.Errorf("HiddenCategories() = %v, want none without a config file", got)
	}
}

func TestLoadYAMLConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
categories:
  order: [priority, area]
  hidden: [internal]
sort:
  default_field: updated
  labels:
    comments: Most Discussed
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadYAMLConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.CategoryOrder(); len(got) != 2 || got[0] != "priority" || got[1] != "area" {
		t.Errorf("CategoryOrder() = %v", got)
	}
	if got := cfg.HiddenCategories(); len(got) != 1 || got[0] != "internal" {
		t.Errorf("HiddenCategories() = %v, want [internal]", got)
	}
	if got := cfg.DefaultSortField(); got != models.SortUpdated {
		t.Errorf("DefaultSortField() = %q, want updated", got)
	}
	labels := cfg.SortLabels()
	if labels[models.SortComments] != "Most Discussed" {
		t.Errorf("comments label = %q, want override", labels[models.SortComments])
	}
	if labels[models.SortCreated] != "Created" {
		t.Errorf("created label = %q, want default", labels[models.SortCreated])
	}
}

func TestLoadYAMLConfigRejectsUnknownSortField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("sort:\n  default_field: stars\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadYAMLConfig(path); err == nil {
		t.Fatal("expected error for unknown sort field")
	}
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// validConfig returns a config that passes Validate, for tests to break
// one field at a time.
func validConfig() *Config {
	c := NewConfig()
	c.StartURL = "https://docs.example.com/library"
	c.OracleURL = "https://oracle.example.com/v1/selectors"
	return c
}

// TestNewConfig tests that defaults are populated.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	c := NewConfig()

	if c.MaxChunkSize != DefaultMaxChunkSize {
		t.Errorf("expected chunk size %d, got %d", DefaultMaxChunkSize, c.MaxChunkSize)
	}
	if c.PageConcurrency != DefaultPageConcurrency {
		t.Errorf("expected page concurrency %d, got %d", DefaultPageConcurrency, c.PageConcurrency)
	}
	if c.MaxInteractionsPerPage != DefaultMaxInteractionsPerPage {
		t.Errorf("expected interaction cap %d, got %d", DefaultMaxInteractionsPerPage, c.MaxInteractionsPerPage)
	}
	if c.DataDir == "" || c.DownloadDir == "" || c.ArchiveDir == "" {
		t.Error("expected directory defaults to be set")
	}
	if len(c.DocumentExtensions) == 0 || c.DocumentExtensions[0] != ".pdf" {
		t.Errorf("expected .pdf document extension default, got %v", c.DocumentExtensions)
	}
	if !c.RespectRobots {
		t.Error("expected robots.txt checks on by default")
	}
}

// TestConfigValidate tests validation of each field.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid config passes",
			mutate:  func(c *Config) {},
			wantErr: nil,
		},
		{
			name:    "missing start URL",
			mutate:  func(c *Config) { c.StartURL = "" },
			wantErr: ErrNoStartURL,
		},
		{
			name:    "missing oracle URL",
			mutate:  func(c *Config) { c.OracleURL = "" },
			wantErr: ErrNoOracleURL,
		},
		{
			name:    "zero request timeout",
			mutate:  func(c *Config) { c.RequestTimeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "negative oracle timeout",
			mutate:  func(c *Config) { c.OracleTimeout = -time.Second },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "zero chunk size",
			mutate:  func(c *Config) { c.MaxChunkSize = 0 },
			wantErr: ErrInvalidChunkSize,
		},
		{
			name:    "zero page concurrency",
			mutate:  func(c *Config) { c.PageConcurrency = 0 },
			wantErr: ErrInvalidConcurrency,
		},
		{
			name:    "zero download concurrency",
			mutate:  func(c *Config) { c.DownloadConcurrency = 0 },
			wantErr: ErrInvalidConcurrency,
		},
		{
			name:    "negative interaction cap",
			mutate:  func(c *Config) { c.MaxInteractionsPerPage = -1 },
			wantErr: ErrInvalidInteractionCap,
		},
		{
			name:    "zero interaction cap is allowed",
			mutate:  func(c *Config) { c.MaxInteractionsPerPage = 0 },
			wantErr: nil,
		},
		{
			name:    "negative retry limit",
			mutate:  func(c *Config) { c.RetryLimit = -1 },
			wantErr: ErrInvalidRetryLimit,
		},
		{
			name: "conflicting report formats",
			mutate: func(c *Config) {
				c.JSONReport = true
				c.MarkdownReport = true
			},
			wantErr: ErrConflictingReportFormats,
		},
		{
			name:    "negative crawl delay",
			mutate:  func(c *Config) { c.CrawlDelay = -time.Second },
			wantErr: ErrInvalidCrawlDelay,
		},
		{
			name:    "zero crawl delay is allowed",
			mutate:  func(c *Config) { c.CrawlDelay = 0 },
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestLoadConfigFile tests YAML parsing of site overrides.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads sites and defaults", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `
defaults:
  maxInteractions: 5
sites:
  docs.example.com:
    maxInteractions: 20
    ignorePatterns:
      - "/archive/*"
    documentExtensions:
      - ".pdf"
      - ".doc"
  portal.example.org:
    headers:
      Accept-Language: en
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		site := cf.GetSiteConfig("docs.example.com")
		if site.MaxInteractions != 20 {
			t.Errorf("expected site override 20, got %d", site.MaxInteractions)
		}
		if len(site.IgnorePatterns) != 1 || site.IgnorePatterns[0] != "/archive/*" {
			t.Errorf("unexpected ignore patterns: %v", site.IgnorePatterns)
		}
		if len(site.DocumentExtensions) != 2 {
			t.Errorf("unexpected document extensions: %v", site.DocumentExtensions)
		}

		// A host with no interaction override inherits the default.
		other := cf.GetSiteConfig("portal.example.org")
		if other.MaxInteractions != 5 {
			t.Errorf("expected inherited default 5, got %d", other.MaxInteractions)
		}
		if other.Headers["Accept-Language"] != "en" {
			t.Errorf("unexpected headers: %v", other.Headers)
		}

		// An unknown host gets pure defaults.
		unknown := cf.GetSiteConfig("nowhere.example.net")
		if unknown.MaxInteractions != 5 {
			t.Errorf("expected defaults for unknown host, got %d", unknown.MaxInteractions)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("malformed yaml returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("sites: [not a map"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected parse error for malformed yaml")
		}
	})
}

// TestFindConfigFile tests explicit path resolution.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path is returned", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("sites: {}"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); got != "" {
			t.Errorf("expected empty, got %q", got)
		}
	})
}

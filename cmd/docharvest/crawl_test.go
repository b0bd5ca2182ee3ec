package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/docharvest/docharvest/internal/config"
	"github.com/docharvest/docharvest/internal/frontier"
	dlog "github.com/docharvest/docharvest/internal/log"
	"github.com/docharvest/docharvest/internal/model"
)

// TestNewCrawlCmd tests the crawl command structure.
func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "crawl [start-url]" {
			t.Errorf("expected use 'crawl [start-url]', got %q", cmd.Use)
		}
	})

	t.Run("has expected flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{
			"oracle-url", "oracle-timeout", "chunk-size",
			"timeout", "page-concurrency", "download-concurrency",
			"max-interactions", "max-pages", "max-documents",
			"retries", "crawl-delay", "no-robots",
			"download-dir", "archive-dir", "data-dir",
			"config", "json", "markdown", "output", "metrics-addr",
		} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected flag %q", name)
			}
		}
	})
}

// TestBuildCrawlConfig tests flag to config translation.
func TestBuildCrawlConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cmd := NewCrawlCmd()

		cfg, err := buildCrawlConfig(cmd, []string{"https://docs.example.com/library"})
		if err != nil {
			t.Fatalf("buildCrawlConfig failed: %v", err)
		}

		if cfg.StartURL != "https://docs.example.com/library" {
			t.Errorf("unexpected start URL %q", cfg.StartURL)
		}
		if cfg.PageConcurrency != config.DefaultPageConcurrency {
			t.Errorf("expected default page concurrency, got %d", cfg.PageConcurrency)
		}
		if !cfg.RespectRobots {
			t.Error("expected robots checks enabled by default")
		}
		if cfg.SiteConfigs == nil {
			t.Error("expected empty site configs, got nil")
		}
	})

	t.Run("flag values override defaults", func(t *testing.T) {
		cmd := NewCrawlCmd()
		for flag, value := range map[string]string{
			"oracle-url":    "https://oracle.test/decide",
			"max-pages":     "7",
			"max-documents": "3",
			"retries":       "0",
			"crawl-delay":   "250ms",
			"no-robots":     "true",
			"json":          "true",
		} {
			if err := cmd.Flags().Set(flag, value); err != nil {
				t.Fatalf("failed to set %s: %v", flag, err)
			}
		}

		cfg, err := buildCrawlConfig(cmd, []string{"https://docs.example.com"})
		if err != nil {
			t.Fatalf("buildCrawlConfig failed: %v", err)
		}

		if cfg.OracleURL != "https://oracle.test/decide" {
			t.Errorf("unexpected oracle URL %q", cfg.OracleURL)
		}
		if cfg.MaxPages != 7 {
			t.Errorf("expected max pages 7, got %d", cfg.MaxPages)
		}
		if cfg.MaxDocuments != 3 {
			t.Errorf("expected max documents 3, got %d", cfg.MaxDocuments)
		}
		if cfg.RetryLimit != 0 {
			t.Errorf("expected retry limit 0, got %d", cfg.RetryLimit)
		}
		if cfg.CrawlDelay != 250*time.Millisecond {
			t.Errorf("expected crawl delay 250ms, got %s", cfg.CrawlDelay)
		}
		if cfg.RespectRobots {
			t.Error("expected robots checks disabled with --no-robots")
		}
		if !cfg.JSONReport {
			t.Error("expected JSON report enabled")
		}
	})

	t.Run("api key comes from environment", func(t *testing.T) {
		t.Setenv("ORACLE_API_KEY", "sk-test-key-for-config-check")

		cfg, err := buildCrawlConfig(NewCrawlCmd(), []string{"https://docs.example.com"})
		if err != nil {
			t.Fatalf("buildCrawlConfig failed: %v", err)
		}
		if cfg.OracleAPIKey != "sk-test-key-for-config-check" {
			t.Errorf("expected API key from environment, got %q", cfg.OracleAPIKey)
		}
	})

	t.Run("missing explicit config file errors", func(t *testing.T) {
		cmd := NewCrawlCmd()
		if err := cmd.Flags().Set("config", filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
			t.Fatal(err)
		}

		if _, err := buildCrawlConfig(cmd, []string{"https://docs.example.com"}); err == nil {
			t.Error("expected error for missing explicit config file")
		}
	})
}

// TestApplySiteOverrides tests per-host configuration merging.
func TestApplySiteOverrides(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.SiteConfigs = &config.File{
		Sites: map[string]config.SiteConfig{
			"docs.example.com": {
				MaxInteractions:    25,
				DocumentExtensions: []string{".pdf", ".docx"},
			},
		},
	}

	applySiteOverrides(cfg, "docs.example.com")

	if cfg.MaxInteractionsPerPage != 25 {
		t.Errorf("expected interaction cap 25, got %d", cfg.MaxInteractionsPerPage)
	}
	if len(cfg.DocumentExtensions) != 2 {
		t.Errorf("expected 2 document extensions, got %v", cfg.DocumentExtensions)
	}

	// A host with no entry keeps the global settings.
	other := config.NewConfig()
	other.SiteConfigs = cfg.SiteConfigs
	applySiteOverrides(other, "other.example.com")
	if other.MaxInteractionsPerPage != config.DefaultMaxInteractionsPerPage {
		t.Errorf("expected default interaction cap, got %d", other.MaxInteractionsPerPage)
	}
}

// TestLoadFrontier tests snapshot restore behavior.
func TestLoadFrontier(t *testing.T) {
	t.Parallel()

	logger := dlog.NewLogger(io.Discard, false)

	t.Run("missing snapshot starts fresh", func(t *testing.T) {
		t.Parallel()

		front := loadFrontier(filepath.Join(t.TempDir(), "frontier.json"), logger)
		if front.Len() != 0 || front.VisitedCount() != 0 {
			t.Error("expected empty frontier for missing snapshot")
		}
	})

	t.Run("saved snapshot restores", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "frontier.json")

		saved := frontier.New()
		u, err := model.Canonicalize("https://docs.example.com/page")
		if err != nil {
			t.Fatal(err)
		}
		saved.Enqueue(u)
		if err := saved.Save(path); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		front := loadFrontier(path, logger)
		if front.Len() != 1 {
			t.Errorf("expected 1 queued URL after restore, got %d", front.Len())
		}
	})

	t.Run("corrupt snapshot starts fresh", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "frontier.json")
		if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
			t.Fatal(err)
		}

		front := loadFrontier(path, logger)
		if front.Len() != 0 {
			t.Error("expected empty frontier for corrupt snapshot")
		}
	})
}

// TestOutputSummary tests summary writing to a file.
func TestOutputSummary(t *testing.T) {
	t.Parallel()

	summary := &model.CrawlSummary{
		StartURL:            "https://docs.example.com",
		PagesVisited:        2,
		DocumentsDownloaded: 1,
		StartedAt:           time.Now().Add(-time.Minute),
		FinishedAt:          time.Now(),
	}

	t.Run("json to file", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.JSONReport = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "out", "summary.json")

		if err := outputSummary(cfg, summary); err != nil {
			t.Fatalf("outputSummary failed: %v", err)
		}

		data, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("report file not written: %v", err)
		}
		if !strings.Contains(string(data), "\"pages_visited\": 2") {
			t.Errorf("unexpected report content: %s", data)
		}
	})

	t.Run("markdown to file", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.MarkdownReport = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "summary.md")

		if err := outputSummary(cfg, summary); err != nil {
			t.Fatalf("outputSummary failed: %v", err)
		}

		data, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("report file not written: %v", err)
		}
		if !strings.Contains(string(data), "# Crawl Summary") {
			t.Errorf("unexpected report content: %s", data)
		}
	})
}

// TestPersistFrontier tests the snapshot lifecycle across runs.
func TestPersistFrontier(t *testing.T) {
	t.Parallel()

	logger := dlog.NewLogger(io.Discard, false)

	t.Run("interrupted run saves a snapshot", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "frontier.json")
		front := frontier.New()
		u, err := model.Canonicalize("https://docs.example.com/next")
		if err != nil {
			t.Fatal(err)
		}
		front.Enqueue(u)

		persistFrontier(front, path, true, logger)

		restored := loadFrontier(path, logger)
		if restored.Len() != 1 {
			t.Errorf("expected 1 queued URL in saved snapshot, got %d", restored.Len())
		}
	})

	t.Run("completed run removes the snapshot so a re-run revisits pages", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "frontier.json")
		start, err := model.Canonicalize("https://docs.example.com/library")
		if err != nil {
			t.Fatal(err)
		}

		// First run: the start page is visited, a download on it fails,
		// and the crawl completes normally.
		first := frontier.New()
		first.Enqueue(start)
		if _, ok := first.Next(); !ok {
			t.Fatal("expected pop to succeed")
		}
		if err := first.Save(path); err != nil {
			t.Fatal(err)
		}
		persistFrontier(first, path, false, logger)

		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatal("expected snapshot removed after completed run")
		}

		// Second run: with no snapshot, the start page is visited again,
		// so the page carrying the failed link is rediscovered and the
		// download (absent from the success log) is retried.
		second := loadFrontier(path, logger)
		second.Enqueue(start)
		u, ok := second.Next()
		if !ok {
			t.Fatal("re-run against the same start URL visited zero pages")
		}
		if u.String() != start.String() {
			t.Errorf("expected re-run to visit %q, got %q", start, u)
		}
	})

	t.Run("completed run with no snapshot is quiet", func(t *testing.T) {
		t.Parallel()

		persistFrontier(frontier.New(), filepath.Join(t.TempDir(), "frontier.json"), false, logger)
	})
}

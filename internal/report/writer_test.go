package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/docharvest/docharvest/internal/model"
)

// testSummary returns a populated summary for writer tests.
func testSummary() *model.CrawlSummary {
	started := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	return &model.CrawlSummary{
		StartURL:            "https://docs.example.com/library",
		PagesVisited:        12,
		PagesArchived:       11,
		DocumentsDownloaded: 34,
		DocumentsFailed:     2,
		DocumentsSkipped:    5,
		Faults: []model.Fault{
			{Kind: model.FaultNavigation, URL: "https://docs.example.com/dead", Err: "connection refused"},
			{Kind: model.FaultDownload, URL: "https://docs.example.com/f.pdf", Detail: "source https://docs.example.com/library", Err: "fetch returned 500"},
			{Kind: model.FaultOracle, URL: "https://docs.example.com/library", Detail: "chunk 3", Err: "timeout"},
		},
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Minute),
	}
}

// TestSimpleWriter tests the human-readable format.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes counts and faults", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		n, err := w.Write(testSummary())
		if err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
		}

		out := buf.String()
		for _, want := range []string{
			"https://docs.example.com/library",
			"Pages visited:        12",
			"Documents downloaded: 34",
			"Documents failed:     2",
			"[NAVIGATION] 1",
			"[DOWNLOAD] 1",
			"[ORACLE] 1",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q", want)
			}
		}

		// Error text only appears in verbose mode.
		if strings.Contains(out, "connection refused") {
			t.Error("error text shown without verbose")
		}
	})

	t.Run("verbose includes error text", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))

		if _, err := w.Write(testSummary()); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if !strings.Contains(buf.String(), "connection refused") {
			t.Error("verbose output missing error text")
		}
	})

	t.Run("clean run omits fault section", func(t *testing.T) {
		t.Parallel()

		summary := testSummary()
		summary.Faults = nil

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(summary); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if strings.Contains(buf.String(), "FAULTS") {
			t.Error("fault section shown for clean run")
		}
	})

	t.Run("showEmpty keeps fault section", func(t *testing.T) {
		t.Parallel()

		summary := testSummary()
		summary.Faults = nil

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithShowEmpty(true)).Write(summary); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if !strings.Contains(buf.String(), "No faults recorded") {
			t.Error("expected empty fault section with showEmpty")
		}
	})
}

// TestMarkdownWriter tests the Markdown format.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewMarkdownWriter(&buf)

	if _, err := w.Write(testSummary()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# Crawl Summary",
		"## Documents",
		"## Faults",
		"`https://docs.example.com/library`",
		"mermaid",
		"Downloaded",
		"34",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

// TestJSONWriter tests the JSON format round trip.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("compact output parses back", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(testSummary()); err != nil {
			t.Fatalf("write failed: %v", err)
		}

		var decoded model.CrawlSummary
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.DocumentsDownloaded != 34 {
			t.Errorf("expected 34 downloads after round trip, got %d", decoded.DocumentsDownloaded)
		}
		if len(decoded.Faults) != 3 {
			t.Errorf("expected 3 faults after round trip, got %d", len(decoded.Faults))
		}
	})

	t.Run("pretty print indents", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(testSummary()); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"") {
			t.Error("expected indented output")
		}
	})
}

// TestMultiWriter tests fan-out to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var text, js bytes.Buffer
	mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

	if _, err := mw.Write(testSummary()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if text.Len() == 0 || js.Len() == 0 {
		t.Error("expected both writers to receive output")
	}
}

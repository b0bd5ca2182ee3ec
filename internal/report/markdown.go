package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/docharvest/docharvest/internal/model"
)

// MarkdownWriter outputs summaries in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given
// writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.CrawlSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeCounts(md, summary)
	w.writeFaults(md, summary)

	return len(md.String()), md.Build()
}

// writeHeader writes the run information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.CrawlSummary) {
	md.H1("Crawl Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + summary.StartURL + "`"},
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", summary.Elapsed().Round(fmtRound).String()},
			{"Pages Visited", strconv.Itoa(summary.PagesVisited)},
		},
	})
	md.PlainText("")
}

// writeCounts writes the document accounting with a distribution chart.
func (w *MarkdownWriter) writeCounts(md *markdown.Markdown, summary *model.CrawlSummary) {
	md.H2("Documents")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"Downloaded", strconv.Itoa(summary.DocumentsDownloaded)},
			{"Failed", strconv.Itoa(summary.DocumentsFailed)},
			{"Skipped (already downloaded)", strconv.Itoa(summary.DocumentsSkipped)},
		},
	})
	md.PlainText("")

	if summary.DocumentsDownloaded+summary.DocumentsFailed+summary.DocumentsSkipped > 0 {
		w.writePieChart(md, summary)
	}

	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart of the document outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.CrawlSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Document Outcomes"),
		piechart.WithShowData(true),
	)

	if summary.DocumentsDownloaded > 0 {
		chart.LabelAndIntValue("Downloaded", uint64(summary.DocumentsDownloaded))
	}
	if summary.DocumentsFailed > 0 {
		chart.LabelAndIntValue("Failed", uint64(summary.DocumentsFailed))
	}
	if summary.DocumentsSkipped > 0 {
		chart.LabelAndIntValue("Skipped", uint64(summary.DocumentsSkipped))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert reflecting the run's health.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.CrawlSummary) {
	switch {
	case summary.DocumentsFailed > 0:
		md.Warningf(
			"%d document(s) exhausted their retries. They remain retryable on the next run.",
			summary.DocumentsFailed,
		)
	case len(summary.Faults) > 0:
		md.Note(fmt.Sprintf(
			"%d non-fatal fault(s) were recorded during the crawl.",
			len(summary.Faults),
		))
	default:
		md.Tip("Crawl completed without faults.")
	}
	md.PlainText("")
}

// writeFaults writes the fault table grouped by kind.
func (w *MarkdownWriter) writeFaults(md *markdown.Markdown, summary *model.CrawlSummary) {
	md.H2("Faults")
	md.PlainText("")

	if len(summary.Faults) == 0 {
		md.PlainText("No faults recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(summary.Faults))
	for i, f := range summary.Faults {
		detail := f.Detail
		if detail == "" {
			detail = "-"
		}
		errText := f.Err
		if errText == "" {
			errText = "-"
		}
		rows[i] = []string{
			strings.ToUpper(string(f.Kind)),
			truncateString(f.URL, 60),
			truncateString(detail, 40),
			truncateString(errText, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Kind", "URL", "Detail", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docharvest/docharvest/internal/model"
)

// fmtRound is the display precision for elapsed time.
const fmtRound = 100 * time.Millisecond

// SimpleWriter outputs human-readable text summaries.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose enables per-fault error text in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with underlying error text.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.CrawlSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeCounts(&sb, summary)
	w.writeFaults(&sb, summary)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the summary header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.CrawlSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        DOCHARVEST CRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Start URL:  %s\n", summary.StartURL))
	sb.WriteString(fmt.Sprintf("Started:    %s\n", summary.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Elapsed:    %s\n", summary.Elapsed().Round(fmtRound)))
	sb.WriteString("\n")
}

// writeCounts writes the page and document accounting section.
func (w *SimpleWriter) writeCounts(sb *strings.Builder, summary *model.CrawlSummary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RESULTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Pages visited:        %d\n", summary.PagesVisited))
	sb.WriteString(fmt.Sprintf("  Pages archived:       %d\n", summary.PagesArchived))
	sb.WriteString(fmt.Sprintf("  Documents downloaded: %d\n", summary.DocumentsDownloaded))
	sb.WriteString(fmt.Sprintf("  Documents failed:     %d\n", summary.DocumentsFailed))
	sb.WriteString(fmt.Sprintf("  Documents skipped:    %d (already downloaded)\n", summary.DocumentsSkipped))
	sb.WriteString("\n")
}

// writeFaults writes the per-unit failures grouped by kind.
func (w *SimpleWriter) writeFaults(sb *strings.Builder, summary *model.CrawlSummary) {
	if len(summary.Faults) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FAULTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(summary.Faults) == 0 {
		sb.WriteString("  No faults recorded\n\n")
		return
	}

	for _, kind := range faultOrder {
		faults := faultsOfKind(summary, kind)
		if len(faults) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("[%s] %d\n", strings.ToUpper(string(kind)), len(faults)))
		for _, f := range faults {
			sb.WriteString(fmt.Sprintf("  * %s\n", f.URL))
			if f.Detail != "" {
				sb.WriteString(fmt.Sprintf("    Detail: %s\n", f.Detail))
			}
			if w.verbose && f.Err != "" {
				sb.WriteString(fmt.Sprintf("    Error: %s\n", f.Err))
			}
		}
		sb.WriteString("\n")
	}
}

// writeFooter writes the summary footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// faultOrder is the display order for fault kinds, most disruptive first.
var faultOrder = []model.FaultKind{
	model.FaultNavigation,
	model.FaultDownload,
	model.FaultOracle,
	model.FaultInteraction,
	model.FaultArchive,
}

// faultsOfKind filters the summary's faults by kind, preserving order.
func faultsOfKind(summary *model.CrawlSummary, kind model.FaultKind) []model.Fault {
	var out []model.Fault
	for _, f := range summary.Faults {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

package model

import "time"

// FaultKind classifies a scoped, non-fatal failure encountered during a crawl.
// The kinds mirror the units of work that can fail independently: one page,
// one chunk, one selector, one download, one archive write.
type FaultKind string

const (
	// FaultNavigation means the browser could not load a page.
	// The page is abandoned; the crawl continues.
	FaultNavigation FaultKind = "navigation"

	// FaultOracle means one chunk's oracle request failed or timed out.
	// The chunk contributes zero candidates.
	FaultOracle FaultKind = "oracle"

	// FaultInteraction means one selector failed to resolve or click.
	// The selector is skipped.
	FaultInteraction FaultKind = "interaction"

	// FaultDownload means one document exhausted its download retries.
	FaultDownload FaultKind = "download"

	// FaultArchive means the page snapshot could not be persisted.
	// Archiving is best-effort; this is a warning only.
	FaultArchive FaultKind = "archive"
)

// Fault records a single scoped failure for the end-of-run summary.
type Fault struct {
	// Kind classifies the failed unit of work.
	Kind FaultKind `json:"kind"`

	// URL is the page or document the failure is scoped to.
	URL string `json:"url"`

	// Detail names the specific unit (chunk index, selector string, path).
	Detail string `json:"detail,omitempty"`

	// Err is the underlying error text.
	Err string `json:"error,omitempty"`
}

// CrawlSummary is the user-facing accounting of a completed crawl.
type CrawlSummary struct {
	// StartURL is the canonical URL the crawl began from.
	StartURL string `json:"start_url"`

	// PagesVisited is the number of unique pages processed.
	PagesVisited int `json:"pages_visited"`

	// PagesArchived is the number of page snapshots written.
	PagesArchived int `json:"pages_archived"`

	// DocumentsDownloaded is the number of documents fetched successfully
	// in this run.
	DocumentsDownloaded int `json:"documents_downloaded"`

	// DocumentsFailed is the number of documents that exhausted retries.
	DocumentsFailed int `json:"documents_failed"`

	// DocumentsSkipped is the number of submissions suppressed by the
	// dedup set (already downloaded in this or a prior run).
	DocumentsSkipped int `json:"documents_skipped"`

	// Faults holds every scoped failure encountered, in discovery order.
	Faults []Fault `json:"faults,omitempty"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Elapsed returns the wall-clock duration of the run.
func (s *CrawlSummary) Elapsed() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

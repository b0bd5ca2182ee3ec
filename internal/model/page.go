package model

import "time"

// PageState identifies where a URL is in its processing lifecycle.
// Every URL popped from the frontier walks these states in order and
// always terminates in PageDone, even on failure.
type PageState int

const (
	// PageFetching means the browser driver is navigating to the URL.
	PageFetching PageState = iota

	// PageArchiving means the raw HTML snapshot is being persisted.
	PageArchiving

	// PageChunking means the HTML is being decomposed into oracle-sized chunks.
	PageChunking

	// PageAwaitingOracle means chunks are out to the decision oracle.
	PageAwaitingOracle

	// PageInteracting means aggregated selectors are being replayed in the browser.
	PageInteracting

	// PageExtracting means document and page links are being scanned out of
	// the original and post-interaction DOM snapshots.
	PageExtracting

	// PageDone is the terminal state, reached on success and failure alike.
	PageDone
)

// String returns a human-readable state name for logging.
func (s PageState) String() string {
	switch s {
	case PageFetching:
		return "fetching"
	case PageArchiving:
		return "archiving"
	case PageChunking:
		return "chunking"
	case PageAwaitingOracle:
		return "awaiting-oracle"
	case PageInteracting:
		return "interacting"
	case PageExtracting:
		return "extracting"
	case PageDone:
		return "done"
	default:
		return "unknown"
	}
}

// PageVisit accumulates the state of one URL's trip through the crawl
// pipeline. Each pipeline step reads what earlier steps produced and
// appends its own results. A PageVisit is owned by exactly one worker
// and is never shared across goroutines.
type PageVisit struct {
	// URL is the canonical URL being processed.
	URL CrawlURL

	// State is the current lifecycle state, advanced by the pipeline.
	State PageState

	// HTML is the rendered DOM captured after navigation.
	HTML string

	// FetchedAt is when navigation completed.
	FetchedAt time.Time

	// Snapshots holds the DOM captured after each successful interaction.
	// The original HTML is scanned separately, so this contains only
	// post-interaction states.
	Snapshots []string

	// Selectors is the aggregated, deduplicated interaction list for the page.
	Selectors []SelectorCandidate

	// DocumentLinks are the absolute document URLs discovered on this page
	// across all snapshots.
	DocumentLinks []CrawlURL

	// PageLinks are same-site page URLs discovered for the frontier.
	PageLinks []CrawlURL

	// Faults records every non-fatal failure hit while processing the page.
	Faults []Fault
}

// NewPageVisit creates a PageVisit in the initial state.
func NewPageVisit(u CrawlURL) *PageVisit {
	return &PageVisit{URL: u, State: PageFetching}
}

// AddFault records a scoped failure without aborting the visit.
func (v *PageVisit) AddFault(kind FaultKind, detail string, err error) {
	f := Fault{Kind: kind, URL: v.URL.String(), Detail: detail}
	if err != nil {
		f.Err = err.Error()
	}
	v.Faults = append(v.Faults, f)
}

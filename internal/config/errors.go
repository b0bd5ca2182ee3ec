package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoStartURL is returned when no start page is specified.
	ErrNoStartURL = errors.New("no start URL specified: provide a page to crawl from")

	// ErrNoOracleURL is returned when the decision service endpoint is
	// missing. The crawler cannot choose selectors without it.
	ErrNoOracleURL = errors.New("no oracle URL specified: set --oracle-url")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidChunkSize is returned when the chunk size is not positive.
	// A zero chunk size would make chunking impossible.
	ErrInvalidChunkSize = errors.New("invalid chunk size: must be positive")

	// ErrInvalidConcurrency is returned when a pool size is not positive.
	// A pool of zero workers would mean no progress at all.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidInteractionCap is returned when the per-page interaction
	// cap is negative. Use 0 to disable interactions entirely.
	ErrInvalidInteractionCap = errors.New("invalid interaction cap: must be non-negative")

	// ErrInvalidRetryLimit is returned when the retry limit is negative.
	// Use 0 for a single attempt per download.
	ErrInvalidRetryLimit = errors.New("invalid retry limit: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used at a
	// time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// A negative delay is invalid; use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")
)

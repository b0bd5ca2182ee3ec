package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. Where a default mirrors the behavior of
// typical document portals (slow script-heavy pages, rate limiting on
// burst traffic) the rationale is noted on the constant.
const (
	// DefaultOracleTimeout bounds one decision service round trip. Selector
	// extraction over a large HTML chunk routinely takes tens of seconds,
	// so this is generous.
	DefaultOracleTimeout = 120 * time.Second

	// DefaultRequestTimeout bounds one page navigation or document fetch.
	DefaultRequestTimeout = 60 * time.Second

	// DefaultMaxChunkSize is the largest HTML slice sent to the decision
	// service in one request. Sized to stay comfortably inside typical
	// model context limits with room for the prompt.
	DefaultMaxChunkSize = 100_000

	// DefaultPageConcurrency is how many pages are processed at once. Each
	// page worker owns a browser tab, so this also bounds tab count.
	DefaultPageConcurrency = 2

	// DefaultDownloadConcurrency is the document download pool size.
	DefaultDownloadConcurrency = 4

	// DefaultMaxInteractionsPerPage caps clicks attempted on one page.
	// Selector lists from the decision service are noisy; past a handful
	// of clicks the marginal yield is near zero.
	DefaultMaxInteractionsPerPage = 10

	// DefaultMaxPages is the maximum number of pages visited per run.
	// This prevents runaway crawling on large or infinitely-generating
	// sites. Override via the --max-pages CLI flag.
	DefaultMaxPages = 100

	// DefaultMaxDocuments caps successful downloads per run.
	DefaultMaxDocuments = 500

	// DefaultRetryLimit is how many times a failed download is retried
	// within a run before a failed record is logged.
	DefaultRetryLimit = 2

	// DefaultCrawlDelay is the delay between page navigations. This is a
	// politeness setting; document portals are often small institutional
	// servers that rate limit burst traffic.
	DefaultCrawlDelay = 1 * time.Second

	// DefaultSettleDelay is how long a page gets to run scripts after
	// navigation or a click before its DOM is captured.
	DefaultSettleDelay = 2 * time.Second

	// AppName is the application name used for XDG directory paths.
	AppName = "docharvest"
)

// DefaultDocumentExtensions are the URL path suffixes treated as document
// links rather than pages.
var DefaultDocumentExtensions = []string{".pdf"}

// Config holds all configuration options for a crawl run.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, OracleConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant
// benefit.
type Config struct {
	// StartURL is the page the crawl begins from. Only URLs on the same
	// host are followed.
	StartURL string

	// OracleURL is the HTTP endpoint of the selector decision service.
	OracleURL string

	// OracleAPIKey authenticates requests to the decision service.
	// Usually loaded from the ORACLE_API_KEY environment variable.
	OracleAPIKey string

	// OracleTimeout bounds one decision service request.
	OracleTimeout time.Duration

	// RequestTimeout bounds one page navigation or document fetch.
	RequestTimeout time.Duration

	// MaxChunkSize is the largest HTML slice sent to the decision service.
	MaxChunkSize int

	// PageConcurrency is how many pages run through the state machine at
	// once.
	PageConcurrency int

	// DownloadConcurrency is the document download worker pool size.
	DownloadConcurrency int

	// MaxInteractionsPerPage caps selector clicks attempted per page.
	MaxInteractionsPerPage int

	// MaxPages is the maximum number of pages visited per run.
	// A value of 0 means use the default (DefaultMaxPages).
	MaxPages int

	// MaxDocuments caps successful downloads per run.
	MaxDocuments int

	// RetryLimit is how many times a failed download is retried.
	RetryLimit int

	// CrawlDelay is the delay between page navigations.
	CrawlDelay time.Duration

	// SettleDelay is the post-action render delay before DOM capture.
	SettleDelay time.Duration

	// DownloadDir is where fetched documents are written.
	// Defaults to the XDG data directory plus "documents".
	DownloadDir string

	// ArchiveDir is where page HTML snapshots are written.
	// Defaults to the XDG data directory plus "archive".
	ArchiveDir string

	// DataDir holds the download log database and frontier snapshots.
	// Defaults to the XDG data directory.
	DataDir string

	// DocumentExtensions are URL path suffixes classified as documents.
	DocumentExtensions []string

	// RespectRobots enables robots.txt checks before visiting a page.
	RespectRobots bool

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// JSONReport enables JSON summary output instead of human-readable
	// format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown summary output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the summary.
	// When set, the summary is written to this file instead of stdout.
	ReportFile string

	// MetricsAddr is the listen address for the Prometheus metrics
	// endpoint. Empty disables the listener.
	MetricsAddr string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .docharvest in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds site-specific overrides loaded from the config
	// file.
	SiteConfigs *File
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most runs.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because most defaults are non-zero (timeouts, pool sizes).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		OracleTimeout:          DefaultOracleTimeout,
		RequestTimeout:         DefaultRequestTimeout,
		MaxChunkSize:           DefaultMaxChunkSize,
		PageConcurrency:        DefaultPageConcurrency,
		DownloadConcurrency:    DefaultDownloadConcurrency,
		MaxInteractionsPerPage: DefaultMaxInteractionsPerPage,
		MaxPages:               DefaultMaxPages,
		MaxDocuments:           DefaultMaxDocuments,
		RetryLimit:             DefaultRetryLimit,
		CrawlDelay:             DefaultCrawlDelay,
		SettleDelay:            DefaultSettleDelay,
		DataDir:                XDGDataDir(),
		DownloadDir:            filepath.Join(XDGDataDir(), "documents"),
		ArchiveDir:             filepath.Join(XDGDataDir(), "archive"),
		DocumentExtensions:     DefaultDocumentExtensions,
		RespectRobots:          true,
	}
}

// XDGDataDir returns the XDG data directory for the crawler.
// On Linux: ~/.local/share/docharvest
// On macOS: ~/Library/Application Support/docharvest
// On Windows: %LOCALAPPDATA%\docharvest
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for the crawler.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before the crawl begins.
//
// We chose to return the first error found rather than collecting all
// errors because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.StartURL == "" {
		return ErrNoStartURL
	}

	if c.OracleURL == "" {
		return ErrNoOracleURL
	}

	// Timeouts must be positive; zero would cause immediate failures
	if c.RequestTimeout <= 0 || c.OracleTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxChunkSize <= 0 {
		return ErrInvalidChunkSize
	}

	// Pool sizes must be positive; zero would mean no progress
	if c.PageConcurrency <= 0 || c.DownloadConcurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.MaxInteractionsPerPage < 0 {
		return ErrInvalidInteractionCap
	}

	if c.RetryLimit < 0 {
		return ErrInvalidRetryLimit
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	// CrawlDelay must be non-negative
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	return nil
}

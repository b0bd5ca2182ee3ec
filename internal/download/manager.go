package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/docharvest/docharvest/internal/metrics"
	"github.com/docharvest/docharvest/internal/model"
)

// Manager tuning defaults.
const (
	// DefaultConcurrency is the download worker pool size.
	DefaultConcurrency = 4

	// DefaultRetryLimit is how many times a transient failure is retried
	// before a failed record is logged.
	DefaultRetryLimit = 2

	// DefaultTimeout bounds a single fetch attempt.
	DefaultTimeout = 60 * time.Second

	// retryBackoff is the base delay between attempts, doubled each retry.
	retryBackoff = 500 * time.Millisecond

	// queueDepth is the submission buffer. A full queue applies
	// backpressure to page workers rather than growing without bound.
	queueDepth = 256
)

// errTruncated reports a body shorter than the declared Content-Length.
var errTruncated = errors.New("transfer truncated before declared length")

// submission is one queued download request.
type submission struct {
	link   model.CrawlURL
	source model.CrawlURL
}

// Manager drains a queue of document links with a bounded worker pool,
// writing each document to disk and one record per attempt to the durable
// log. Submit is safe to call concurrently and repeatedly for the same
// link; the dedup set guarantees at most one attempt per distinct URL.
type Manager struct {
	log     *Log
	dir     string
	hc      *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger

	concurrency int
	retryLimit  int

	mu sync.Mutex
	// claimed is the dedup set: URLs with a prior success plus URLs already
	// accepted this run. Insertion happens at submission time, before the
	// fetch starts.
	claimed map[string]bool
	// names tracks reserved destination filenames for collision-safe naming.
	names map[string]bool

	downloaded int
	failed     int
	skipped    int
	faults     []model.Fault

	queue chan submission
	g     *errgroup.Group
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithConcurrency sets the worker pool size.
func WithConcurrency(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// WithRetryLimit sets how many retries follow a failed attempt.
func WithRetryLimit(n int) ManagerOption {
	return func(m *Manager) {
		if n >= 0 {
			m.retryLimit = n
		}
	}
}

// WithTimeout sets the per-attempt fetch timeout.
func WithTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.hc.Timeout = d
		}
	}
}

// WithRateLimit caps fetch starts at n per second. Zero disables pacing.
func WithRateLimit(n float64) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.limiter = rate.NewLimiter(rate.Limit(n), 1)
		}
	}
}

// WithLogger sets a custom logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager writing documents to dir and records to log.
// The dedup set is seeded from the log's prior successes, so documents
// downloaded by earlier runs are never fetched again.
func NewManager(ctx context.Context, log *Log, dir string, opts ...ManagerOption) (*Manager, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	m := &Manager{
		log:         log,
		dir:         dir,
		hc:          &http.Client{Timeout: DefaultTimeout},
		concurrency: DefaultConcurrency,
		retryLimit:  DefaultRetryLimit,
		claimed:     make(map[string]bool),
		names:       make(map[string]bool),
		queue:       make(chan submission, queueDepth),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}

	prior, err := log.SuccessURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to seed dedup set: %w", err)
	}
	for _, u := range prior {
		m.claimed[u] = true
	}
	m.logger.Info("download dedup set seeded", "priorSuccesses", len(prior))

	return m, nil
}

// Start launches the worker pool. Workers run until Drain is called and
// the queue empties. Cancelling ctx stops new transfers; a transfer
// interrupted mid-flight removes its partial file and is not logged, so
// the next run retries it.
func (m *Manager) Start(ctx context.Context) {
	g := new(errgroup.Group)
	m.g = g
	for i := 0; i < m.concurrency; i++ {
		g.Go(func() error {
			for sub := range m.queue {
				// Stop starting new transfers once shutdown begins, but
				// keep draining the queue so Drain can return.
				if ctx.Err() != nil {
					continue
				}
				m.process(ctx, sub)
			}
			return nil
		})
	}
}

// Submit queues one document link discovered on source. It returns true if
// the link was accepted, false if the dedup set already claimed it. The
// claim is inserted under lock before the fetch begins, so two pages
// submitting the same link concurrently produce exactly one download.
func (m *Manager) Submit(link, source model.CrawlURL) bool {
	key := link.String()

	m.mu.Lock()
	if m.claimed[key] {
		m.skipped++
		m.mu.Unlock()
		metrics.Downloads.WithLabelValues("skipped").Inc()
		return false
	}
	m.claimed[key] = true
	m.mu.Unlock()

	m.queue <- submission{link: link, source: source}
	return true
}

// Drain closes the submission queue and blocks until every queued download
// has been attempted and logged. Call after the last Submit.
func (m *Manager) Drain() error {
	close(m.queue)
	if m.g == nil {
		return nil
	}
	return m.g.Wait()
}

// Stats returns the counts accumulated this run.
func (m *Manager) Stats() (downloaded, failed, skipped int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.downloaded, m.failed, m.skipped
}

// Faults returns the download faults recorded this run.
func (m *Manager) Faults() []model.Fault {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Fault(nil), m.faults...)
}

// process runs the full attempt cycle for one submission: paced fetch with
// bounded retries, then exactly one log record.
func (m *Manager) process(ctx context.Context, sub submission) {
	dest := m.reserveName(sub.link.String())

	var err error
	for attempt := 0; attempt <= m.retryLimit; attempt++ {
		if attempt > 0 {
			backoff := retryBackoff << (attempt - 1)
			m.logger.Debug("retrying download",
				"url", sub.link.String(),
				"attempt", attempt,
				"backoff", backoff,
			)
			select {
			case <-ctx.Done():
				err = ctx.Err()
			case <-time.After(backoff):
			}
			if ctx.Err() != nil {
				break
			}
		}

		if m.limiter != nil {
			if err = m.limiter.Wait(ctx); err != nil {
				break
			}
		}

		if err = m.fetch(ctx, sub.link.String(), dest); err == nil {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	// A transfer interrupted by shutdown is neither a success nor a real
	// failure; leave it out of the log so a future run attempts it fresh.
	if err != nil && ctx.Err() != nil {
		m.logger.Info("download interrupted by shutdown", "url", sub.link.String())
		return
	}

	rec := model.DownloadRecord{
		URL:        sub.link.String(),
		SourcePage: sub.source.String(),
		Timestamp:  time.Now(),
	}
	if err == nil {
		rec.Outcome = model.OutcomeSuccess
		rec.Destination = dest
	} else {
		rec.Outcome = model.OutcomeFailed
	}

	// The record must land even if shutdown races the append; a completed
	// transfer with a lost log entry would be re-downloaded next run.
	if logErr := m.log.Append(context.WithoutCancel(ctx), rec); logErr != nil {
		m.logger.Error("failed to append download record",
			"url", rec.URL,
			"error", logErr,
		)
	}

	m.mu.Lock()
	if err == nil {
		m.downloaded++
		metrics.Downloads.WithLabelValues("success").Inc()
	} else {
		m.failed++
		metrics.Downloads.WithLabelValues("failed").Inc()
		m.faults = append(m.faults, model.Fault{
			Kind:   model.FaultDownload,
			URL:    sub.link.String(),
			Detail: "source " + sub.source.String(),
			Err:    err.Error(),
		})
		// A failed URL stays claimed for this run (no automatic re-queue)
		// but its absence from the success log lets the next run retry it.
	}
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("download failed",
			"url", sub.link.String(),
			"source", sub.source.String(),
			"error", err,
		)
	} else {
		m.logger.Info("document downloaded",
			"url", sub.link.String(),
			"dest", dest,
		)
	}
}

// fetch transfers one document to dest. The body lands in a temporary file
// that is renamed into place only after the full transfer verifies, so a
// failed attempt can never leave a partial file behind as a false success.
func (m *Manager) fetch(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("invalid document URL: %w", err)
	}

	resp, err := m.hc.Do(req)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fetch returned %s", resp.Status)
	}

	tmp := dest + ".part"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0640)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	n, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()

	if copyErr == nil && closeErr != nil {
		copyErr = closeErr
	}
	if copyErr == nil && resp.ContentLength >= 0 && n != resp.ContentLength {
		copyErr = fmt.Errorf("%w: got %d of %d bytes", errTruncated, n, resp.ContentLength)
	}
	if copyErr != nil {
		_ = os.Remove(tmp)
		return copyErr
	}

	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to commit %s: %w", dest, err)
	}
	return nil
}

// reserveName derives a collision-safe destination path for a document URL.
// The base filename comes from the URL path; when two distinct URLs share a
// filename, later ones get a short URL-hash suffix.
func (m *Manager) reserveName(rawURL string) string {
	name := "document.pdf"
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "/" && base != "." {
			name = sanitizeFilename(base)
		}
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.names[name] {
		sum := sha256.Sum256([]byte(rawURL))
		ext := filepath.Ext(name)
		name = strings.TrimSuffix(name, ext) + "-" + hex.EncodeToString(sum[:4]) + ext
	}
	m.names[name] = true
	return filepath.Join(m.dir, name)
}

// sanitizeFilename strips characters that are unsafe in filenames.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/docharvest/docharvest/internal/archive"
	"github.com/docharvest/docharvest/internal/browser"
	"github.com/docharvest/docharvest/internal/chunk"
	"github.com/docharvest/docharvest/internal/frontier"
	"github.com/docharvest/docharvest/internal/metrics"
	"github.com/docharvest/docharvest/internal/model"
)

// DocumentSink receives discovered document links. Submit reports whether
// the link was accepted (false means the dedup set already claimed it).
// Satisfied by *download.Manager; tests substitute a recorder.
type DocumentSink interface {
	Submit(link, source model.CrawlURL) bool
}

// DriverFactory opens a fresh browser session for one page worker.
// Each worker owns its session for the whole run, so concurrent pages
// never share navigation state.
type DriverFactory func() (browser.Driver, error)

// Deps are the collaborators an Orchestrator drives. All fields except
// Robots are required.
type Deps struct {
	Frontier  *frontier.Frontier
	Archiver  *archive.Archiver
	Splitter  *chunk.Splitter
	Oracle    SelectorOracle
	Downloads DocumentSink
	NewDriver DriverFactory
	Parser    *Parser

	// Robots gates page visits when non-nil.
	Robots *RobotsGate
}

// Orchestrator runs the crawl: a pool of page workers pulls URLs from the
// frontier and pushes each through the step pipeline, feeding discovered
// links back into the frontier and the download sink.
type Orchestrator struct {
	deps     Deps
	pipeline *Pipeline
	logger   *slog.Logger

	concurrency     int
	maxPages        int
	maxDocuments    int
	maxInteractions int
	crawlDelay      time.Duration

	mu   sync.Mutex
	cond *sync.Cond
	// inflight counts pages claimed but not yet finished. The crawl is
	// over when the frontier is empty and inflight is zero.
	inflight int
	// claimed counts pages handed to workers, for the page cap.
	claimed int
	// stopped flips on shutdown and wakes every waiting worker.
	stopped bool

	pagesArchived int
	docsSubmitted int
	faults        []model.Fault
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency sets the page worker pool size.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithMaxPages caps pages visited per run. Zero means no cap.
func WithMaxPages(n int) Option {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.maxPages = n
		}
	}
}

// WithMaxDocuments caps document submissions per run. Zero means no cap.
func WithMaxDocuments(n int) Option {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.maxDocuments = n
		}
	}
}

// WithMaxInteractions caps selector clicks per page.
func WithMaxInteractions(n int) Option {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.maxInteractions = n
		}
	}
}

// WithCrawlDelay spaces page navigations across all workers.
// Zero disables pacing.
func WithCrawlDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.crawlDelay = d
		}
	}
}

// WithLogger sets a custom logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates an Orchestrator over the given collaborators.
func New(deps Deps, opts ...Option) (*Orchestrator, error) {
	switch {
	case deps.Frontier == nil:
		return nil, errors.New("orchestrator requires a frontier")
	case deps.Archiver == nil:
		return nil, errors.New("orchestrator requires an archiver")
	case deps.Splitter == nil:
		return nil, errors.New("orchestrator requires a splitter")
	case deps.Oracle == nil:
		return nil, errors.New("orchestrator requires an oracle")
	case deps.Downloads == nil:
		return nil, errors.New("orchestrator requires a download sink")
	case deps.NewDriver == nil:
		return nil, errors.New("orchestrator requires a driver factory")
	case deps.Parser == nil:
		return nil, errors.New("orchestrator requires a parser")
	}

	o := &Orchestrator{
		deps:            deps,
		concurrency:     2,
		maxInteractions: 10,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.cond = sync.NewCond(&o.mu)

	var limiter *rate.Limiter
	if o.crawlDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(o.crawlDelay), 1)
	}

	o.pipeline = NewPipeline(o.logger,
		&fetchStep{limiter: limiter},
		&archiveStep{archiver: deps.Archiver},
		&oracleStep{splitter: deps.Splitter, oracle: deps.Oracle},
		&interactStep{maxInteractions: o.maxInteractions, logger: o.logger},
		&extractStep{parser: deps.Parser, logger: o.logger},
	)

	return o, nil
}

// Run crawls from start until the frontier drains, a cap is hit, or ctx is
// cancelled. It returns the page-side summary; download counters are owned
// by the sink and merged by the caller.
func (o *Orchestrator) Run(ctx context.Context, start model.CrawlURL) (*model.CrawlSummary, error) {
	summary := &model.CrawlSummary{
		StartURL:  start.String(),
		StartedAt: time.Now(),
	}

	o.deps.Frontier.Enqueue(start)

	// Wake every blocked worker when shutdown begins so none is left
	// waiting on a frontier that will never refill.
	stop := context.AfterFunc(ctx, func() {
		o.mu.Lock()
		o.stopped = true
		o.cond.Broadcast()
		o.mu.Unlock()
	})
	defer stop()

	g := new(errgroup.Group)
	for i := 0; i < o.concurrency; i++ {
		g.Go(func() error {
			return o.worker(ctx)
		})
	}
	err := g.Wait()

	o.mu.Lock()
	summary.PagesVisited = o.claimed
	summary.PagesArchived = o.pagesArchived
	summary.Faults = append(summary.Faults, o.faults...)
	o.mu.Unlock()
	summary.FinishedAt = time.Now()

	if err != nil {
		return summary, err
	}
	return summary, ctx.Err()
}

// worker owns one browser session and processes pages until the crawl ends.
func (o *Orchestrator) worker(ctx context.Context) error {
	driver, err := o.deps.NewDriver()
	if err != nil {
		// A worker that cannot open a session must not strand the pool:
		// wake the others so termination still resolves.
		o.mu.Lock()
		o.cond.Broadcast()
		o.mu.Unlock()
		return fmt.Errorf("failed to open browser session: %w", err)
	}
	defer driver.Close()

	for {
		u, ok := o.claim()
		if !ok {
			return nil
		}

		if o.deps.Robots != nil && !o.deps.Robots.Allowed(ctx, u) {
			o.logger.Info("page disallowed by robots.txt", "url", u.String())
			// A denied page was never visited; give its claim back so the
			// page cap counts only real visits.
			o.mu.Lock()
			o.claimed--
			o.inflight--
			o.cond.Broadcast()
			o.mu.Unlock()
			continue
		}

		o.process(ctx, driver, u)
		o.release()
	}
}

// claim atomically pops the next URL and registers it in flight. It blocks
// while the frontier is empty but other pages are still being processed,
// because those pages may enqueue more work. Returns false when the crawl
// is over for this worker.
func (o *Orchestrator) claim() (model.CrawlURL, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for {
		if o.stopped {
			return model.CrawlURL{}, false
		}
		if o.maxPages > 0 && o.claimed >= o.maxPages {
			return model.CrawlURL{}, false
		}
		if u, ok := o.deps.Frontier.Next(); ok {
			o.claimed++
			o.inflight++
			return u, true
		}
		if o.inflight == 0 {
			// Nothing queued and nothing running: the crawl is complete.
			// Wake the other waiters so they observe the same conclusion.
			o.cond.Broadcast()
			return model.CrawlURL{}, false
		}
		o.cond.Wait()
	}
}

// release marks one in-flight page finished and wakes waiting workers.
func (o *Orchestrator) release() {
	o.mu.Lock()
	o.inflight--
	o.cond.Broadcast()
	o.mu.Unlock()
}

// process runs one page through the pipeline and feeds its discoveries
// back into the frontier and the download sink.
func (o *Orchestrator) process(ctx context.Context, driver browser.Driver, u model.CrawlURL) {
	o.logger.Info("processing page", "url", u.String())

	run := &pageRun{visit: model.NewPageVisit(u), driver: driver}
	if err := o.pipeline.Execute(ctx, run); err != nil {
		if ctx.Err() != nil {
			// Shutdown cut this page off mid-pipeline. It was marked
			// visited when claimed, so put it back; a resumed run must
			// revisit it, not skip it. It is not a fault and not a visit.
			o.deps.Frontier.Requeue(u)
			o.mu.Lock()
			o.claimed--
			o.mu.Unlock()
			o.logger.Info("page requeued after shutdown", "url", u.String())
			return
		}
		run.visit.AddFault(model.FaultNavigation, "", err)
		o.logger.Warn("page abandoned", "url", u.String(), "error", err)
	}
	run.visit.State = model.PageDone
	metrics.PagesVisited.Inc()

	// Reserve document budget under the lock, but submit outside it:
	// Submit applies backpressure when the download queue is full, and
	// blocking there must not stall the other page workers.
	o.mu.Lock()
	if run.archived {
		o.pagesArchived++
	}
	o.faults = append(o.faults, run.visit.Faults...)

	reserved := len(run.visit.DocumentLinks)
	if o.maxDocuments > 0 {
		remaining := o.maxDocuments - o.docsSubmitted
		if remaining < 0 {
			remaining = 0
		}
		if reserved > remaining {
			reserved = remaining
		}
	}
	o.docsSubmitted += reserved
	o.mu.Unlock()

	submitted := 0
	for _, d := range run.visit.DocumentLinks {
		if submitted >= reserved {
			break
		}
		if o.deps.Downloads.Submit(d, u) {
			submitted++
		}
	}

	o.mu.Lock()
	// Dedup-suppressed submissions do not consume document budget.
	o.docsSubmitted -= reserved - submitted
	for _, p := range run.visit.PageLinks {
		o.deps.Frontier.Enqueue(p)
	}
	o.cond.Broadcast()
	o.mu.Unlock()

	o.logger.Info("page complete",
		"url", u.String(),
		"documents", len(run.visit.DocumentLinks),
		"submitted", submitted,
		"pageLinks", len(run.visit.PageLinks),
		"faults", len(run.visit.Faults),
	)
}

package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/docharvest/docharvest/internal/archive"
	"github.com/docharvest/docharvest/internal/browser"
	"github.com/docharvest/docharvest/internal/chunk"
	"github.com/docharvest/docharvest/internal/metrics"
	"github.com/docharvest/docharvest/internal/model"
	"github.com/docharvest/docharvest/internal/oracle"
)

// SelectorOracle proposes interaction selectors for a fragment of HTML.
// Satisfied by *oracle.Client; tests substitute a stub.
type SelectorOracle interface {
	Selectors(ctx context.Context, html, pageURL string) ([]string, error)
}

// pageRun is the mutable unit one page's steps operate on. Steps read what
// earlier steps produced and append their own results.
type pageRun struct {
	// visit accumulates the page's durable results.
	visit *model.PageVisit

	// driver is the worker's browser session, already positioned on the
	// page after the fetch step.
	driver browser.Driver

	// doms are the snapshots to scan for links: the base HTML plus one
	// entry per successful interaction.
	doms []string

	// archived reports whether this visit wrote a new snapshot file.
	archived bool
}

// Step is one stage of a page's processing.
//
// Design decision: We use an interface rather than function types because:
//  1. It allows steps to carry configuration state
//  2. It provides a Name() method for logging and debugging
//  3. Steps compose into a pipeline that reads as the page lifecycle
type Step interface {
	// Do executes the step. Returning an error abandons the page; failures
	// that should not abandon it are recorded on the visit as faults and
	// return nil.
	Do(ctx context.Context, run *pageRun) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes a page's steps in order, stopping at the first error.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// NewPipeline creates a pipeline over the given steps.
func NewPipeline(logger *slog.Logger, steps ...Step) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{steps: steps, logger: logger}
}

// Execute runs all steps in sequence for one page.
//
// Design decision: We check context cancellation before each step rather
// than during, because steps handle their own timeouts. This allows clean
// teardown between steps while still respecting cancellation.
func (p *Pipeline) Execute(ctx context.Context, run *pageRun) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("page abandoned by shutdown",
				"step", step.Name(),
				"url", run.visit.URL.String(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"url", run.visit.URL.String(),
		)

		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"url", run.visit.URL.String(),
				"error", err,
			)
			return err
		}
	}
	return nil
}

// fetchStep navigates the worker's browser session to the page and captures
// the settled DOM. This is the only step whose failure abandons the page:
// nothing downstream can run without HTML.
type fetchStep struct {
	// limiter paces navigations across all workers. Nil disables pacing.
	limiter *rate.Limiter
}

func (s *fetchStep) Name() string { return "fetch" }

func (s *fetchStep) Do(ctx context.Context, run *pageRun) error {
	run.visit.State = model.PageFetching

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	html, err := run.driver.Navigate(ctx, run.visit.URL.String())
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	run.visit.HTML = html
	run.visit.FetchedAt = time.Now()
	run.doms = []string{html}
	return nil
}

// archiveStep persists the page's raw HTML. Best effort: a page whose
// snapshot cannot be written is still worth mining for links.
type archiveStep struct {
	archiver *archive.Archiver
}

func (s *archiveStep) Name() string { return "archive" }

func (s *archiveStep) Do(ctx context.Context, run *pageRun) error {
	run.visit.State = model.PageArchiving

	written, err := s.archiver.Archive(run.visit.URL.String(), run.visit.HTML)
	if err != nil {
		run.visit.AddFault(model.FaultArchive, archive.SnapshotName(run.visit.URL.String()), err)
		return nil
	}
	if written {
		run.archived = true
		metrics.PagesArchived.Inc()
	}
	return nil
}

// oracleStep cuts the page into bounded chunks, consults the decision
// service per chunk, and aggregates the replies into the page's ordered
// selector list. A failed chunk contributes zero candidates; the other
// chunks still count.
type oracleStep struct {
	splitter *chunk.Splitter
	oracle   SelectorOracle
}

func (s *oracleStep) Name() string { return "consult-oracle" }

func (s *oracleStep) Do(ctx context.Context, run *pageRun) error {
	run.visit.State = model.PageChunking

	var chunkResults [][]string
	for c := range s.splitter.Split(run.visit.URL, run.visit.HTML) {
		run.visit.State = model.PageAwaitingOracle

		selectors, err := s.oracle.Selectors(ctx, c.Content, run.visit.URL.String())
		switch {
		case err != nil:
			metrics.OracleRequests.WithLabelValues("error").Inc()
			run.visit.AddFault(model.FaultOracle, fmt.Sprintf("chunk %d", c.Index), err)
			chunkResults = append(chunkResults, nil)
		case len(selectors) == 0:
			metrics.OracleRequests.WithLabelValues("empty").Inc()
			chunkResults = append(chunkResults, nil)
		default:
			metrics.OracleRequests.WithLabelValues("ok").Inc()
			chunkResults = append(chunkResults, selectors)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	run.visit.Selectors = oracle.Aggregate(run.visit.URL, chunkResults)
	return nil
}

// interactStep replays the aggregated selectors in the browser, capturing
// the DOM after each successful click. A selector the page no longer
// contains is skipped quietly; selectors frequently target content an
// earlier click already changed.
type interactStep struct {
	maxInteractions int
	logger          *slog.Logger
}

func (s *interactStep) Name() string { return "interact" }

func (s *interactStep) Do(ctx context.Context, run *pageRun) error {
	run.visit.State = model.PageInteracting

	for i, cand := range run.visit.Selectors {
		if i >= s.maxInteractions {
			s.logger.Debug("interaction cap reached",
				"url", run.visit.URL.String(),
				"remaining", len(run.visit.Selectors)-i,
			)
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		metrics.Interactions.Inc()
		html, err := run.driver.Interact(ctx, cand.Selector)
		if errors.Is(err, browser.ErrSelectorNotFound) {
			s.logger.Debug("selector not present",
				"url", run.visit.URL.String(),
				"selector", cand.Selector,
			)
			continue
		}
		if err != nil {
			run.visit.AddFault(model.FaultInteraction, cand.Selector, err)
			continue
		}

		run.visit.Snapshots = append(run.visit.Snapshots, html)
		run.doms = append(run.doms, html)
	}
	return nil
}

// extractStep scans every captured DOM state for document and page links.
// Links revealed only after a click live in the post-interaction snapshots,
// which is the whole point of interacting.
type extractStep struct {
	parser *Parser
	logger *slog.Logger
}

func (s *extractStep) Name() string { return "extract" }

func (s *extractStep) Do(ctx context.Context, run *pageRun) error {
	run.visit.State = model.PageExtracting

	seenDocs := make(map[string]bool)
	seenPages := make(map[string]bool)

	for _, dom := range run.doms {
		result, err := s.parser.Extract(run.visit.URL, dom)
		if err != nil {
			s.logger.Warn("snapshot unparsable",
				"url", run.visit.URL.String(),
				"error", err,
			)
			continue
		}

		for _, d := range result.Documents {
			if !seenDocs[d.String()] {
				seenDocs[d.String()] = true
				run.visit.DocumentLinks = append(run.visit.DocumentLinks, d)
			}
		}
		for _, p := range result.Pages {
			if !seenPages[p.String()] {
				seenPages[p.String()] = true
				run.visit.PageLinks = append(run.visit.PageLinks, p)
			}
		}
	}
	return nil
}

package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PagesVisited counts pages that completed the state machine,
	// regardless of per-page faults.
	PagesVisited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "docharvest_pages_visited_total",
		Help: "Total number of pages run through the crawl state machine",
	})

	// PagesArchived counts first-time HTML snapshots written to disk.
	PagesArchived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "docharvest_pages_archived_total",
		Help: "Total number of page snapshots written",
	})

	// Downloads counts document download attempts by outcome
	// (success, failed, skipped).
	Downloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "docharvest_downloads_total",
		Help: "Total number of document download attempts by outcome",
	}, []string{"outcome"})

	// OracleRequests counts decision service round trips by result
	// (ok, empty, error).
	OracleRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "docharvest_oracle_requests_total",
		Help: "Total number of decision service requests by result",
	}, []string{"result"})

	// Interactions counts selector clicks attempted in the browser.
	Interactions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "docharvest_interactions_total",
		Help: "Total number of selector clicks attempted",
	})
)

func init() {
	prometheus.MustRegister(PagesVisited, PagesArchived, Downloads, OracleRequests, Interactions)
}

// Serve exposes /metrics on addr until ctx is cancelled. It blocks, so run
// it in its own goroutine. Returns nil on clean shutdown.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listener started", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

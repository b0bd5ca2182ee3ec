package crawler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/docharvest/docharvest/internal/model"
)

// robotsUserAgent is the agent name matched against robots.txt groups.
const robotsUserAgent = "docharvest"

// RobotsGate answers whether a URL may be visited, fetching and caching
// each host's robots.txt on first contact. A host whose robots.txt cannot
// be fetched or parsed is treated as allowing everything; a missing file
// is not a prohibition.
type RobotsGate struct {
	hc     *http.Client
	logger *slog.Logger

	mu    sync.Mutex
	hosts map[string]*robotstxt.RobotsData // nil entry means fetch failed
}

// NewRobotsGate creates a gate fetching robots.txt with the given timeout.
func NewRobotsGate(timeout time.Duration, logger *slog.Logger) *RobotsGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &RobotsGate{
		hc:     &http.Client{Timeout: timeout},
		logger: logger,
		hosts:  make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether u may be visited.
func (g *RobotsGate) Allowed(ctx context.Context, u model.CrawlURL) bool {
	parsed, err := url.Parse(u.String())
	if err != nil {
		return false
	}

	g.mu.Lock()
	robots, cached := g.hosts[parsed.Host]
	g.mu.Unlock()

	if !cached {
		robots = g.fetch(ctx, parsed.Scheme, parsed.Host)
		g.mu.Lock()
		g.hosts[parsed.Host] = robots
		g.mu.Unlock()
	}

	if robots == nil {
		return true
	}
	return robots.FindGroup(robotsUserAgent).Test(parsed.Path)
}

// fetch retrieves and parses one host's robots.txt.
// Returns nil when the file is absent or unreadable.
func (g *RobotsGate) fetch(ctx context.Context, scheme, host string) *robotstxt.RobotsData {
	robotsURL := scheme + "://" + host + "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", robotsUserAgent)

	resp, err := g.hc.Do(req)
	if err != nil {
		g.logger.Debug("robots.txt unreachable", "host", host, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil
	}

	robots, err := robotstxt.FromResponse(resp)
	if err != nil {
		g.logger.Debug("robots.txt unparsable", "host", host, "error", err)
		return nil
	}
	return robots
}

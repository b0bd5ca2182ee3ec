package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// Default driver tuning.
const (
	// DefaultSettleDelay is how long the driver waits after navigation or a
	// click before snapshotting the DOM, giving scripts time to render the
	// content the action revealed.
	DefaultSettleDelay = 2 * time.Second

	// DefaultNavigateTimeout bounds a single navigation or interaction.
	DefaultNavigateTimeout = 60 * time.Second

	// defaultUserAgent is a realistic desktop Chrome user agent. Some
	// document portals serve degraded markup to obvious automation.
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Chrome owns a headless Chrome process shared by all tabs.
type Chrome struct {
	// allocCtx is the exec-allocator context all tabs derive from.
	allocCtx context.Context

	// cancel tears down the allocator and the browser process.
	cancel context.CancelFunc

	// settle is the post-action delay before DOM capture.
	settle time.Duration

	// timeout bounds each navigation or interaction.
	timeout time.Duration

	// logger is used for structured logging.
	logger *slog.Logger
}

// ChromeOption configures the Chrome process.
type ChromeOption func(*Chrome)

// WithSettleDelay sets the post-action settle delay.
func WithSettleDelay(d time.Duration) ChromeOption {
	return func(c *Chrome) {
		if d >= 0 {
			c.settle = d
		}
	}
}

// WithTimeout sets the per-action timeout.
func WithTimeout(d time.Duration) ChromeOption {
	return func(c *Chrome) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets a custom logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ChromeOption {
	return func(c *Chrome) {
		c.logger = logger
	}
}

// NewChrome starts a headless Chrome allocator.
// Call Close to terminate the browser process.
func NewChrome(opts ...ChromeOption) *Chrome {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(defaultUserAgent),
		chromedp.WindowSize(1920, 1080),
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	c := &Chrome{
		allocCtx: allocCtx,
		cancel:   cancel,
		settle:   DefaultSettleDelay,
		timeout:  DefaultNavigateTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Close terminates the browser process and every tab derived from it.
func (c *Chrome) Close() error {
	c.cancel()
	return nil
}

// NewTab opens a fresh tab bound to this Chrome process. Each page worker
// gets its own tab so concurrent page state machines never share a DOM.
func (c *Chrome) NewTab() *Tab {
	tabCtx, cancel := chromedp.NewContext(c.allocCtx)
	return &Tab{
		ctx:     tabCtx,
		cancel:  cancel,
		settle:  c.settle,
		timeout: c.timeout,
		logger:  c.logger,
	}
}

var _ Driver = (*Tab)(nil)

// Tab is one Chrome tab implementing Driver. A Tab holds navigation state
// between Navigate and Interact calls and must be used by one goroutine at
// a time.
type Tab struct {
	ctx     context.Context
	cancel  context.CancelFunc
	settle  time.Duration
	timeout time.Duration
	logger  *slog.Logger
}

// Navigate loads url and returns the rendered DOM once the page settles.
func (t *Tab) Navigate(ctx context.Context, url string) (string, error) {
	runCtx, cancel := t.runContext(ctx)
	defer cancel()

	var html, contentType string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(t.settle),
		chromedp.Evaluate("document.contentType", &contentType),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	if !strings.Contains(contentType, "html") {
		return "", fmt.Errorf("%w: content type %q at %s", ErrNotHTML, contentType, url)
	}

	t.logger.Debug("page rendered", "url", url, "bytes", len(html))
	return html, nil
}

// Interact clicks the first element matching selector on the currently
// loaded page and returns the settled DOM. The selector is embedded into a
// querySelector probe as a JSON string literal, never spliced raw, so a
// hostile selector cannot escape into script.
func (t *Tab) Interact(ctx context.Context, selector string) (string, error) {
	runCtx, cancel := t.runContext(ctx)
	defer cancel()

	quoted, err := json.Marshal(selector)
	if err != nil {
		return "", fmt.Errorf("unencodable selector: %w", err)
	}

	var exists bool
	probe := fmt.Sprintf("document.querySelector(%s) !== null", quoted)
	if err := chromedp.Run(runCtx, chromedp.Evaluate(probe, &exists)); err != nil {
		return "", fmt.Errorf("selector probe failed: %w", err)
	}
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrSelectorNotFound, selector)
	}

	var html string
	err = chromedp.Run(runCtx,
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
		chromedp.Sleep(t.settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("interaction %q failed: %w", selector, err)
	}

	t.logger.Debug("interaction captured", "selector", selector, "bytes", len(html))
	return html, nil
}

// Close releases the tab.
func (t *Tab) Close() error {
	t.cancel()
	return nil
}

// runContext derives an action context from the tab that is bounded by the
// per-action timeout and cancelled when the caller's context is.
func (t *Tab) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(t.ctx, t.timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

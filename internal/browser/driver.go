package browser

import (
	"context"
	"errors"
)

// Driver errors.
var (
	// ErrSelectorNotFound is returned by Interact when the selector matches
	// no element in the current page. The selector is skipped, not fatal.
	ErrSelectorNotFound = errors.New("selector matched no element")

	// ErrNotHTML is returned by Navigate when the target does not render to
	// an HTML document (binary content, download-only endpoint).
	ErrNotHTML = errors.New("target is not an HTML page")
)

// Driver is the browser automation command set the orchestrator depends on.
// Implementations must be safe for use from one goroutine at a time; the
// orchestrator serializes access per page worker.
type Driver interface {
	// Navigate loads url in the browser and returns the rendered DOM.
	Navigate(ctx context.Context, url string) (html string, err error)

	// Interact performs a click on the first element matching selector in
	// the currently loaded page and returns the DOM after the page settles.
	// Returns ErrSelectorNotFound if nothing matches.
	Interact(ctx context.Context, selector string) (html string, err error)

	// Close releases the underlying browser resources.
	Close() error
}

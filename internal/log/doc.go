// Package log provides structured logging for the crawler, built on top of
// the standard slog package.
//
// A crawl run logs two kinds of awkward values: credentials (the decision
// service API key travels as a bearer header) and page material (raw HTML
// runs to megabytes and selectors can embed arbitrary markup). The Handler
// wrapper deals with both before a record reaches the underlying handler:
//   - attributes whose key or value looks credential-like are masked
//   - oversized string attributes are truncated to a readable prefix
//
// Even in verbose mode, secrets are masked and page bodies stay short, so
// debug logs can be shared without scrubbing.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	logger.Debug("chunk submitted",
//	    "html", chunk.Content,       // truncated past the cap
//	    "authorization", bearer,     // masked
//	)
package log

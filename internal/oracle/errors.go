package oracle

import "errors"

// Oracle communication errors.
// A failed chunk contributes zero candidates; none of these errors is fatal
// to the page, let alone the crawl.
var (
	// ErrUnavailable is returned when the oracle endpoint cannot be reached.
	// The service may be down or the configured URL may be wrong.
	ErrUnavailable = errors.New("decision oracle unavailable")

	// ErrBadStatus is returned when the oracle responds with a non-2xx status.
	ErrBadStatus = errors.New("decision oracle returned error status")

	// ErrNoSelectors is returned when a response contains no parseable
	// selector list. The model sometimes answers with prose only; callers
	// treat this the same as an empty candidate list.
	ErrNoSelectors = errors.New("no selector list found in oracle response")
)

// Package oracle talks to the external decision oracle and merges its
// per-chunk answers into one actionable list per page.
//
// The oracle is a black-box network service: it receives one HTML fragment
// plus the page URL for context and returns candidate CSS selectors for
// elements plausibly leading to documents. It has real latency and real
// failure modes, and the model behind it emits JSON embedded in free-form
// text, so the client parses responses defensively: it accepts a bare JSON
// array, or an object with a list-valued key holding the selectors, and
// ignores any surrounding prose.
//
// Selectors are untrusted model output. The Aggregator validates each one
// with the cascadia selector parser and drops anything that does not parse,
// is overlong, or contains control characters, before the browser driver
// ever sees it.
package oracle

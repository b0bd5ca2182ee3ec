package model

// SelectorCandidate is an interaction target proposed by the decision oracle.
// The selector string is opaque and untrusted: it is produced by an external
// model and must be validated before being handed to the browser driver.
type SelectorCandidate struct {
	// Source is the page the candidate was proposed for.
	Source CrawlURL

	// Selector is the CSS-selector-like identifier returned by the oracle.
	Selector string

	// Chunk is the index of the HTML chunk the oracle saw when proposing it.
	Chunk int

	// Rank is the candidate's position in the page's aggregated list.
	// Lower is earlier; the first occurrence of a selector keeps its rank.
	Rank int
}

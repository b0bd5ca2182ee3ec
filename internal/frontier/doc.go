// Package frontier owns the crawl frontier: the FIFO queue of URLs waiting
// to be visited and the set of URLs already claimed.
//
// The frontier is the only arbiter of "have we seen this page". A URL is a
// member of at most one of {queued, visited} at any time, and marking a URL
// visited happens atomically with popping it, so two workers can never claim
// the same page even when they discover it concurrently.
//
// Design decision: visited-marking happens at pop time, not at completion.
// Marking at completion would open a window where a second link-extraction
// pass re-enqueues a page that is already being processed.
package frontier

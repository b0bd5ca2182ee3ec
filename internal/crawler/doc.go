// Package crawler drives the crawl: it pops URLs from the frontier and runs
// each one through a fixed pipeline of steps inside a bounded worker pool.
//
// One page's trip is:
//
//	fetch -> archive -> consult oracle -> interact -> extract
//
// Fetch failures abandon the page; every later step degrades instead, by
// recording a fault on the visit and letting the remaining steps run on
// whatever was produced so far. A page with a dead decision service still
// gets its plainly visible links extracted.
//
// Workers coordinate through the frontier: a worker that finds the queue
// empty blocks until either another in-flight page enqueues new links or
// the last in-flight page finishes, which is the termination condition.
package crawler

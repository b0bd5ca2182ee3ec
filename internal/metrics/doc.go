// Package metrics exposes Prometheus counters for crawl progress.
//
// Counters are registered on the default registry at init and served over
// HTTP only when a listen address is configured. Components increment them
// directly; nothing in the crawl path depends on the listener being up.
package metrics

// Package archive persists a raw HTML snapshot of every visited page.
//
// Snapshots are keyed by a filesystem-safe encoding of the canonical URL and
// written at most once: the frontier guarantees a URL is visited one time,
// and the archiver's first-write-wins rule makes a resumed run harmless.
// Archive failures are warnings, never crawl-fatal; the archiver reports
// them and the orchestrator records a fault and moves on.
package archive

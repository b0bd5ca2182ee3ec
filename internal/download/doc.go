// Package download fetches and persists discovered document URLs.
//
// The package owns the only two pieces of cross-run state in the system:
// the append-only download log and the in-memory dedup set seeded from it.
// A document URL is attempted at most once per lifetime of the log: the
// dedup set is updated atomically when a submission is accepted, before the
// fetch starts, so concurrent submissions of the same link from different
// pages collapse to one download. Failed attempts are logged but never
// enter the success set, which is what makes a later run retry them.
//
// Design decision: The log lives in SQLite (modernc.org/sqlite, WAL mode)
// rather than a flat file because:
//  1. Each record append is atomic, surviving a kill mid-crawl
//  2. The success set is one indexed query at startup
//  3. A single CGO-free database file keeps operation simple
package download

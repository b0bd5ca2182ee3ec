// Package model defines the core data types shared across the crawler.
//
// The types here are deliberately free of behavior beyond construction,
// canonicalization, and formatting. Crawl state ownership lives in the
// packages that mutate it (frontier, download); model only describes the
// data that flows between them:
//
//   - CrawlURL: a canonicalized page URL, the identity used for visit dedup
//   - PageVisit: the accumulated state of one URL's trip through the crawl
//   - HTMLChunk: a bounded fragment of page HTML sent to the decision oracle
//   - SelectorCandidate: an interaction target proposed by the oracle
//   - DownloadRecord: one durable entry in the append-only download log
//   - CrawlSummary: the user-facing end-of-run accounting
package model

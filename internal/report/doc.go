// Package report renders the end-of-run crawl summary.
//
// Three formats share one Writer interface: a human-readable text layout
// for terminals, GitHub Flavored Markdown for sharing, and JSON for tool
// integration. The caller picks the format; the summary data is identical
// across all three.
package report

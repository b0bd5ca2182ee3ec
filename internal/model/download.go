package model

import "time"

// Outcome is the terminal result of one download attempt.
type Outcome int

const (
	// OutcomeSuccess means the full body was transferred and verified.
	OutcomeSuccess Outcome = iota

	// OutcomeFailed means the attempt exhausted its retries.
	// Failed URLs stay out of the dedup set so a later run retries them.
	OutcomeFailed
)

// String returns the log representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParseOutcome converts a stored log value back to an Outcome.
// Unrecognized values parse as OutcomeFailed so a corrupted log entry can
// never seed the success dedup set.
func ParseOutcome(s string) Outcome {
	if s == "success" {
		return OutcomeSuccess
	}
	return OutcomeFailed
}

// DownloadRecord is one entry in the append-only download log.
// Records are immutable once written; the set of URLs with a success record
// is the cross-run dedup set.
type DownloadRecord struct {
	// URL is the resolved absolute document URL, the dedup identity.
	URL string

	// Destination is the local path the bytes were written to.
	// Empty for failed attempts.
	Destination string

	// Outcome is the terminal result of the attempt.
	Outcome Outcome

	// SourcePage is the canonical URL of the page the link was found on.
	SourcePage string

	// Timestamp is when the attempt finished.
	Timestamp time.Time
}

package chunk

import (
	"fmt"
	"iter"
	"strings"

	"github.com/docharvest/docharvest/internal/model"
)

// blockTags are the HTML elements considered safe split boundaries.
// Cutting immediately before one of these keeps each fragment a run of
// whole structural units.
var blockTags = []string{
	"div", "p", "section", "article", "table", "tbody", "thead",
	"ul", "ol", "li", "tr", "td", "th",
	"h1", "h2", "h3", "h4", "h5", "h6",
	"header", "footer", "nav", "main", "aside", "form", "fieldset",
}

// Splitter cuts HTML into chunks no larger than a configured maximum.
// A Splitter is immutable and safe for concurrent use.
type Splitter struct {
	// maxSize is the chunk size ceiling in bytes.
	maxSize int
}

// New creates a Splitter with the given maximum chunk size in bytes.
func New(maxSize int) (*Splitter, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("invalid chunk size %d: must be positive", maxSize)
	}
	return &Splitter{maxSize: maxSize}, nil
}

// MaxSize returns the configured chunk size ceiling.
func (s *Splitter) MaxSize() int { return s.maxSize }

// Split returns a lazy, restartable sequence of chunks cut from html in
// document order. Empty input yields an empty sequence. No chunk ever
// exceeds the configured maximum size.
//
// Design decision: We return an iterator rather than a slice because the
// orchestrator streams chunks to the oracle one request at a time; there
// is no reason to hold every fragment of a large page in memory at once,
// and ranging the sequence again restarts it from the beginning.
func (s *Splitter) Split(src model.CrawlURL, html string) iter.Seq[model.HTMLChunk] {
	return func(yield func(model.HTMLChunk) bool) {
		start := 0
		index := 0
		for start < len(html) {
			end := s.cut(html, start)
			c := model.HTMLChunk{
				Source:  src,
				Index:   index,
				Content: html[start:end],
			}
			if !yield(c) {
				return
			}
			start = end
			index++
		}
	}
}

// SplitAll collects the full chunk sequence into a slice.
func (s *Splitter) SplitAll(src model.CrawlURL, html string) []model.HTMLChunk {
	var chunks []model.HTMLChunk
	for c := range s.Split(src, html) {
		chunks = append(chunks, c)
	}
	return chunks
}

// cut returns the end offset of the chunk starting at start: the last
// block-tag boundary inside the window, or a hard cut at the size limit
// when no boundary exists. Always advances by at least one byte.
func (s *Splitter) cut(html string, start int) int {
	remaining := len(html) - start
	if remaining <= s.maxSize {
		return len(html)
	}

	window := html[start : start+s.maxSize]
	if at := lastBoundary(window); at > 0 {
		return start + at
	}
	return start + s.maxSize
}

// lastBoundary returns the offset of the last block-level opening or
// closing tag within window, or 0 when none is found. Offset 0 itself is
// not a usable boundary because cutting there would make no progress.
func lastBoundary(window string) int {
	for i := len(window) - 1; i > 0; i-- {
		if window[i] != '<' {
			continue
		}
		rest := window[i+1:]
		// Closing tags are boundaries too: "</div>" ends a unit just as
		// "<div" begins one.
		rest = strings.TrimPrefix(rest, "/")
		if isBlockTagStart(rest) {
			return i
		}
	}
	return 0
}

// isBlockTagStart reports whether s begins with a block tag name followed
// by a name terminator, so "<p " matches but "<pre" does not.
func isBlockTagStart(s string) bool {
	for _, tag := range blockTags {
		if len(s) <= len(tag) {
			continue
		}
		if !strings.EqualFold(s[:len(tag)], tag) {
			continue
		}
		switch s[len(tag)] {
		case ' ', '>', '\t', '\n', '\r', '/':
			return true
		}
	}
	return false
}

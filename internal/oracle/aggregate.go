package oracle

import (
	"strings"
	"unicode"

	"github.com/andybalholm/cascadia"

	"github.com/docharvest/docharvest/internal/model"
)

// maxSelectorLen bounds an individual selector string. Real CSS selectors
// for clickable elements are short; anything longer is model noise.
const maxSelectorLen = 256

// Aggregate merges the per-chunk selector lists for one page into a single
// deduplicated, ordered action list.
//
// Merge rule: chunk results are concatenated in chunk-sequence order, and a
// selector seen in an earlier chunk keeps its earlier rank (stable dedup,
// first-seen wins). Invalid selectors are dropped before ranking so a
// rejected string never occupies a rank.
func Aggregate(page model.CrawlURL, chunkResults [][]string) []model.SelectorCandidate {
	seen := make(map[string]bool)
	var out []model.SelectorCandidate

	for chunkIdx, selectors := range chunkResults {
		for _, raw := range selectors {
			sel, ok := SanitizeSelector(raw)
			if !ok {
				continue
			}
			if seen[sel] {
				continue
			}
			seen[sel] = true
			out = append(out, model.SelectorCandidate{
				Source:   page,
				Selector: sel,
				Chunk:    chunkIdx,
				Rank:     len(out),
			})
		}
	}
	return out
}

// SanitizeSelector validates one untrusted selector string from the oracle.
// It returns the trimmed selector and whether it is safe to hand to the
// browser driver. A selector passes only if it is non-empty, bounded in
// length, free of control characters, and parses as a CSS selector.
//
// Design decision: We parse with cascadia rather than pattern-matching
// because the browser driver will evaluate the selector verbatim; the only
// reliable way to know a string is a selector and nothing more is to run
// it through a real selector parser.
func SanitizeSelector(raw string) (string, bool) {
	sel := strings.TrimSpace(raw)
	if sel == "" || len(sel) > maxSelectorLen {
		return "", false
	}
	for _, r := range sel {
		if unicode.IsControl(r) {
			return "", false
		}
	}
	if _, err := cascadia.ParseGroup(sel); err != nil {
		return "", false
	}
	return sel, true
}

// Package chunk decomposes raw page HTML into bounded-size fragments the
// decision oracle can consume.
//
// The oracle has a hard input-context limit. Naive substring slicing risks
// cutting an HTML tag mid-token, which measurably degrades the quality of
// the selectors the oracle returns. The splitter therefore prefers to cut
// at block-level tag boundaries and only falls back to a hard cut when a
// single structural unit is larger than the configured maximum.
//
// Chunks are exact substrings of the input in document order, so their
// concatenation reproduces the original HTML byte for byte.
package chunk

package model

// HTMLChunk is one bounded-size fragment of a page's HTML, sized to fit the
// decision oracle's input-context limit. Chunks preserve document order and
// are analyzed independently; concatenating Content across a page's chunks
// reproduces the original HTML byte for byte.
type HTMLChunk struct {
	// Source is the page the chunk was cut from.
	Source CrawlURL

	// Index is the zero-based position of the chunk within the page.
	Index int

	// Content is the raw HTML fragment. Never exceeds the splitter's
	// configured maximum size.
	Content string
}

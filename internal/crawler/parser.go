package crawler

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/docharvest/docharvest/internal/model"
)

// skipPageExtensions are path suffixes that are never worth visiting as
// pages. Documents among them are classified separately; the rest are
// binary assets a browser navigation would just download.
var skipPageExtensions = []string{
	".zip", ".tar", ".gz", ".rar", ".7z",
	".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".ico",
	".mp3", ".mp4", ".avi", ".mov",
	".css", ".js",
	".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
}

// Parser scans rendered DOM snapshots for document links and same-site page
// links.
//
// Design decision: We parse with golang.org/x/net/html and query through
// goquery rather than walking the node tree by hand because:
//  1. It correctly handles the malformed HTML real portals serve
//  2. Selection reads as one line instead of a recursive walk
//  3. The same selector engine later validates oracle output, so link
//     classification and selector handling agree on syntax
type Parser struct {
	// docExtensions are the lowercased path suffixes classified as
	// documents.
	docExtensions []string
}

// NewParser creates a Parser treating the given path suffixes as document
// links. Suffix matching is case-insensitive.
func NewParser(docExtensions []string) *Parser {
	exts := make([]string, len(docExtensions))
	for i, e := range docExtensions {
		exts[i] = strings.ToLower(e)
	}
	return &Parser{docExtensions: exts}
}

// ExtractResult holds the classified links from one DOM snapshot.
type ExtractResult struct {
	// Documents are absolute document URLs, any host.
	Documents []model.CrawlURL

	// Pages are same-host page URLs eligible for the frontier.
	Pages []model.CrawlURL
}

// Extract parses one DOM snapshot and classifies every anchor.
//
// A link is a document when its path ends in a configured document suffix
// or its anchor carries type="application/pdf"; portals that serve PDFs
// from extensionless handler URLs usually tag the anchor instead. Document
// links may point off-host (files often live on a CDN); page links must
// stay on base's host.
func (p *Parser) Extract(base model.CrawlURL, htmlSrc string) (*ExtractResult, error) {
	root, err := html.Parse(strings.NewReader(htmlSrc))
	if err != nil {
		return nil, err
	}
	doc := goquery.NewDocumentFromNode(root)

	result := &ExtractResult{}
	seenDocs := make(map[string]bool)
	seenPages := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || href == "#" ||
			strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "tel:") ||
			strings.HasPrefix(href, "data:") {
			return
		}

		link, err := base.Resolve(href)
		if err != nil {
			return
		}

		anchorType, _ := sel.Attr("type")
		if p.isDocument(link, anchorType) {
			if !seenDocs[link.String()] {
				seenDocs[link.String()] = true
				result.Documents = append(result.Documents, link)
			}
			return
		}

		if !base.SameHost(link) || skipAsPage(link) {
			return
		}
		if !seenPages[link.String()] {
			seenPages[link.String()] = true
			result.Pages = append(result.Pages, link)
		}
	})

	return result, nil
}

// isDocument classifies a link as a downloadable document.
func (p *Parser) isDocument(link model.CrawlURL, anchorType string) bool {
	if strings.EqualFold(strings.TrimSpace(anchorType), "application/pdf") {
		return true
	}

	path := strings.ToLower(urlPath(link))
	for _, ext := range p.docExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// skipAsPage reports whether a same-host link points at a binary asset
// rather than a navigable page.
func skipAsPage(link model.CrawlURL) bool {
	path := strings.ToLower(urlPath(link))
	for _, ext := range skipPageExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// urlPath returns the path component of a canonical URL.
func urlPath(link model.CrawlURL) string {
	u, err := url.Parse(link.String())
	if err != nil {
		return "/"
	}
	return u.Path
}

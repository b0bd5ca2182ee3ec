package model

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// CrawlURL is a canonicalized absolute URL. Two URLs that canonicalize to
// the same string are the same page for visit and dedup purposes.
//
// Design decision: We canonicalize eagerly at the type boundary rather than
// normalizing ad hoc at comparison sites because:
//  1. The frontier and download dedup sets key on the string form
//  2. A URL that slipped past canonicalization would defeat both sets
//  3. Construction is the single choke point where mistakes are visible
type CrawlURL struct {
	// canonical is the normalized string form. Unexported so a CrawlURL
	// cannot be built without going through Canonicalize.
	canonical string

	// host is the lowercased hostname, kept for same-site checks.
	host string
}

// Canonicalize parses raw and produces its canonical CrawlURL:
// lowercased scheme and host, fragment stripped, query keys sorted,
// and an empty path normalized to "/".
//
// Only absolute http and https URLs are accepted; anything else is an error
// because the crawler cannot navigate to it.
func Canonicalize(raw string) (CrawlURL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return CrawlURL{}, fmt.Errorf("invalid URL %q: %w", raw, err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return CrawlURL{}, fmt.Errorf("unsupported scheme %q in %q", u.Scheme, raw)
	}
	if u.Host == "" {
		return CrawlURL{}, fmt.Errorf("relative URL %q cannot be canonicalized", raw)
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	if u.Path == "" {
		u.Path = "/"
	}

	// Sort query parameters so parameter order never creates two identities
	// for the same page.
	if u.RawQuery != "" {
		q := u.Query()
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var b strings.Builder
		for _, k := range keys {
			vals := q[k]
			sort.Strings(vals)
			for _, v := range vals {
				if b.Len() > 0 {
					b.WriteByte('&')
				}
				b.WriteString(url.QueryEscape(k))
				b.WriteByte('=')
				b.WriteString(url.QueryEscape(v))
			}
		}
		u.RawQuery = b.String()
	}

	return CrawlURL{canonical: u.String(), host: u.Hostname()}, nil
}

// String returns the canonical string form.
func (c CrawlURL) String() string { return c.canonical }

// Host returns the lowercased hostname.
func (c CrawlURL) Host() string { return c.host }

// IsZero reports whether the CrawlURL was never canonicalized.
func (c CrawlURL) IsZero() bool { return c.canonical == "" }

// SameHost reports whether other points at the same host as c.
// Used to keep the crawl scoped to the start URL's site.
func (c CrawlURL) SameHost(other CrawlURL) bool {
	return strings.EqualFold(c.host, other.host)
}

// Resolve resolves href against c and canonicalizes the result.
// Relative links on a page resolve against the page's own URL.
func (c CrawlURL) Resolve(href string) (CrawlURL, error) {
	base, err := url.Parse(c.canonical)
	if err != nil {
		return CrawlURL{}, err
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return CrawlURL{}, fmt.Errorf("invalid href %q: %w", href, err)
	}
	return Canonicalize(base.ResolveReference(ref).String())
}

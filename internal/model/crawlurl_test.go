package model

import "testing"

// TestCanonicalize tests URL canonicalization rules.
func TestCanonicalize(t *testing.T) {
	t.Parallel()

	t.Run("strips fragment and lowercases host", func(t *testing.T) {
		t.Parallel()

		u, err := Canonicalize("HTTP://Example.COM/Docs#section-2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, want := u.String(), "http://example.com/Docs"; got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("empty path becomes root", func(t *testing.T) {
		t.Parallel()

		u, err := Canonicalize("https://example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, want := u.String(), "https://example.com/"; got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("sorts query parameters", func(t *testing.T) {
		t.Parallel()

		a, err := Canonicalize("https://example.com/search?b=2&a=1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b, err := Canonicalize("https://example.com/search?a=1&b=2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.String() != b.String() {
			t.Errorf("query order created distinct identities: %q vs %q", a, b)
		}
	})

	t.Run("rejects non-http schemes", func(t *testing.T) {
		t.Parallel()

		for _, raw := range []string{"ftp://example.com/file", "javascript:void(0)", "mailto:a@b.com"} {
			if _, err := Canonicalize(raw); err == nil {
				t.Errorf("expected error for %q", raw)
			}
		}
	})

	t.Run("rejects relative URLs", func(t *testing.T) {
		t.Parallel()

		if _, err := Canonicalize("/docs/report.pdf"); err == nil {
			t.Error("expected error for relative URL")
		}
	})
}

// TestCrawlURLResolve tests relative link resolution against a page URL.
func TestCrawlURLResolve(t *testing.T) {
	t.Parallel()

	base, err := Canonicalize("https://example.com/docs/index.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		href string
		want string
	}{
		{name: "relative path", href: "report.pdf", want: "https://example.com/docs/report.pdf"},
		{name: "rooted path", href: "/archive/2024", want: "https://example.com/archive/2024"},
		{name: "absolute URL", href: "https://other.example.com/x", want: "https://other.example.com/x"},
		{name: "fragment only resolves to page", href: "#top", want: "https://example.com/docs/index.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := base.Resolve(tt.href)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// TestSameHost tests host comparison used for crawl scoping.
func TestSameHost(t *testing.T) {
	t.Parallel()

	a, _ := Canonicalize("https://example.com/a")
	b, _ := Canonicalize("https://EXAMPLE.com:443/b")
	c, _ := Canonicalize("https://docs.example.com/c")

	if !a.SameHost(b) {
		t.Error("expected same host regardless of case")
	}
	if a.SameHost(c) {
		t.Error("expected subdomain to be a different host")
	}
}

// TestParseOutcome tests that unknown log values never become successes.
func TestParseOutcome(t *testing.T) {
	t.Parallel()

	if ParseOutcome("success") != OutcomeSuccess {
		t.Error("expected success to parse as OutcomeSuccess")
	}
	if ParseOutcome("failed") != OutcomeFailed {
		t.Error("expected failed to parse as OutcomeFailed")
	}
	if ParseOutcome("garbage") != OutcomeFailed {
		t.Error("expected unknown value to parse as OutcomeFailed")
	}
}

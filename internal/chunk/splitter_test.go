package chunk

import (
	"strings"
	"testing"

	"github.com/docharvest/docharvest/internal/model"
)

func testURL(t *testing.T) model.CrawlURL {
	t.Helper()
	u, err := model.Canonicalize("https://example.com/page")
	if err != nil {
		t.Fatalf("failed to canonicalize: %v", err)
	}
	return u
}

// TestSplitSizeBound tests that no chunk ever exceeds the maximum.
func TestSplitSizeBound(t *testing.T) {
	t.Parallel()

	s, err := New(64)
	if err != nil {
		t.Fatalf("failed to create splitter: %v", err)
	}

	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("<div class=\"row\">some cell content here</div>")
	}

	for c := range s.Split(testURL(t), b.String()) {
		if len(c.Content) > 64 {
			t.Fatalf("chunk %d exceeds max: %d bytes", c.Index, len(c.Content))
		}
	}
}

// TestSplitReconstruction tests byte-exact coverage of the input.
func TestSplitReconstruction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		max  int
	}{
		{
			name: "block structured page",
			html: "<html><body><div>alpha</div><p>beta</p><table><tr><td>gamma</td></tr></table></body></html>",
			max:  30,
		},
		{
			name: "single oversized unit forces hard cuts",
			html: "<pre>" + strings.Repeat("x", 200) + "</pre>",
			max:  40,
		},
		{
			name: "input smaller than max",
			html: "<div>tiny</div>",
			max:  1024,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := New(tt.max)
			if err != nil {
				t.Fatalf("failed to create splitter: %v", err)
			}

			var rebuilt strings.Builder
			prev := -1
			for c := range s.Split(testURL(t), tt.html) {
				if c.Index != prev+1 {
					t.Fatalf("chunk indexes not sequential: %d after %d", c.Index, prev)
				}
				prev = c.Index
				if len(c.Content) > tt.max {
					t.Fatalf("chunk %d exceeds max %d: %d bytes", c.Index, tt.max, len(c.Content))
				}
				rebuilt.WriteString(c.Content)
			}

			if rebuilt.String() != tt.html {
				t.Errorf("concatenated chunks differ from input:\nwant %q\ngot  %q", tt.html, rebuilt.String())
			}
		})
	}
}

// TestSplitPrefersTagBoundaries tests that cuts land before block tags when
// one is available in the window.
func TestSplitPrefersTagBoundaries(t *testing.T) {
	t.Parallel()

	s, err := New(40)
	if err != nil {
		t.Fatalf("failed to create splitter: %v", err)
	}

	html := "<div>first block content</div><div>second block content</div>"
	chunks := s.SplitAll(testURL(t), html)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if chunks[0].Content != "<div>first block content</div>" {
		t.Errorf("expected first chunk to end at tag boundary, got %q", chunks[0].Content)
	}
	if !strings.HasPrefix(chunks[1].Content, "<div>") {
		t.Errorf("expected second chunk to start at tag boundary, got %q", chunks[1].Content)
	}
}

// TestSplitEmptyInput tests that empty HTML yields an empty sequence.
func TestSplitEmptyInput(t *testing.T) {
	t.Parallel()

	s, err := New(100)
	if err != nil {
		t.Fatalf("failed to create splitter: %v", err)
	}

	if got := s.SplitAll(testURL(t), ""); len(got) != 0 {
		t.Errorf("expected no chunks for empty input, got %d", len(got))
	}
}

// TestSplitRestartable tests that ranging the sequence twice restarts it.
func TestSplitRestartable(t *testing.T) {
	t.Parallel()

	s, err := New(20)
	if err != nil {
		t.Fatalf("failed to create splitter: %v", err)
	}

	seq := s.Split(testURL(t), "<div>aaa</div><div>bbb</div><div>ccc</div>")

	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}

	first, second := count(), count()
	if first == 0 || first != second {
		t.Errorf("expected identical restarted passes, got %d then %d", first, second)
	}
}

// TestNewRejectsInvalidSize tests constructor validation.
func TestNewRejectsInvalidSize(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, -1} {
		if _, err := New(size); err == nil {
			t.Errorf("expected error for size %d", size)
		}
	}
}

// TestIsBlockTagStart tests tag-name boundary detection.
func TestIsBlockTagStart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{in: "div>", want: true},
		{in: "div class=\"x\">", want: true},
		{in: "p>", want: true},
		{in: "pre>", want: false},
		{in: "TABLE>", want: true},
		{in: "span>", want: false},
		{in: "li/>", want: true},
	}

	for _, tt := range tests {
		if got := isBlockTagStart(tt.in); got != tt.want {
			t.Errorf("isBlockTagStart(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

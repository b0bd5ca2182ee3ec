// Package browser defines the automation driver the crawler navigates and
// interacts through, and provides a headless-Chrome implementation.
//
// The driver surface is deliberately narrow: navigate to a URL and capture
// the rendered DOM, or replay a single selector interaction and capture the
// DOM that results. There is no general scripting hook; oracle-proposed
// selectors are untrusted and a capability-style interface keeps them from
// becoming arbitrary code.
//
// Design decision: chromedp drives a real Chrome because the target sites
// render their document listings with JavaScript; a plain HTTP fetch would
// see an empty shell. The Driver interface still exists so tests and
// alternative engines can substitute a fake.
package browser

package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"
)

// maxResponseSize limits how much of an oracle response we read.
// A well-behaved oracle answers with a short selector list; anything near
// this limit is garbage.
const maxResponseSize = 1 << 20 // 1MB

// jsonPayload matches the first JSON object or array embedded in the
// model's raw text output.
var jsonPayload = regexp.MustCompile(`\{[\s\S]*\}|\[[\s\S]*\]`)

// Client is an HTTP client for the decision oracle service.
//
// Wire protocol: POST {"html": ..., "page_url": ...} to the configured
// endpoint; the response is {"result_text": ...} where result_text is the
// model's raw output containing a JSON selector list.
type Client struct {
	// endpoint is the full URL of the selector-generation endpoint.
	endpoint string

	// apiKey, when set, is sent as a bearer token. Local oracle
	// deployments typically need none.
	apiKey string

	// hc is the underlying HTTP client, carrying the request timeout.
	hc *http.Client

	// logger is used for structured logging.
	logger *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets a bearer token for oracle requests.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithClientLogger sets a custom logger. Defaults to slog.Default().
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the underlying HTTP client.
// Used by tests and by callers that need custom transports.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.hc = hc
	}
}

// NewClient creates a Client for the oracle at endpoint with the given
// per-request timeout.
func NewClient(endpoint string, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		hc:       &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// request is the JSON body sent to the oracle.
type request struct {
	HTML    string `json:"html"`
	PageURL string `json:"page_url,omitempty"`
}

// response is the JSON envelope the oracle answers with.
type response struct {
	ResultText string `json:"result_text"`
}

// Selectors sends one HTML fragment to the oracle and returns the ordered
// selector list it proposes. A nil error with an empty slice is a valid
// answer: the oracle saw nothing interactive in the fragment.
func (c *Client) Selectors(ctx context.Context, html, pageURL string) ([]string, error) {
	body, err := json.Marshal(request{HTML: html, PageURL: pageURL})
	if err != nil {
		return nil, fmt.Errorf("failed to encode oracle request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read oracle response: %w", err)
	}

	var envelope response
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse oracle envelope: %w", err)
	}

	selectors, err := ExtractSelectors(envelope.ResultText)
	if err != nil {
		c.logger.Debug("oracle answered without a selector list", "pageURL", pageURL)
		return nil, err
	}
	return selectors, nil
}

// ExtractSelectors pulls the selector list out of the model's raw text.
// It accepts a bare JSON array of strings, or a JSON object with a
// list-valued key holding the selectors, and tolerates prose around either.
func ExtractSelectors(text string) ([]string, error) {
	match := jsonPayload.FindString(text)
	if match == "" {
		return nil, ErrNoSelectors
	}

	// Bare array form: ["#a", ".b"]
	var list []string
	if err := json.Unmarshal([]byte(match), &list); err == nil {
		return list, nil
	}

	// Object form: {"selectors": ["#a", ".b"], ...}. The decoder walks
	// keys in document order, so the first list-valued key wins and the
	// same response always yields the same list.
	dec := json.NewDecoder(bytes.NewReader([]byte(match)))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, fmt.Errorf("%w: malformed JSON payload", ErrNoSelectors)
	}
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("%w: malformed JSON payload", ErrNoSelectors)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("%w: malformed JSON payload", ErrNoSelectors)
		}
		var inner []string
		if err := json.Unmarshal(value, &inner); err == nil {
			return inner, nil
		}
	}
	return nil, ErrNoSelectors
}

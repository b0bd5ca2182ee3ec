package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// sensitiveKeys contains attribute keys that are always masked.
var sensitiveKeys = map[string]bool{
	// HTTP headers
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,

	// Credentials
	"password":     true,
	"passwd":       true,
	"secret":       true,
	"token":        true,
	"api_key":      true,
	"apikey":       true,
	"api-key":      true,
	"access_token": true,
	"secret_key":   true,
	"credential":   true,
	"credentials":  true,
	"auth":         true,
}

// sensitivePatterns contains value patterns that are masked regardless of
// the attribute key.
var sensitivePatterns = []*regexp.Regexp{
	// JWT tokens
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),

	// Bearer tokens
	regexp.MustCompile(`(?i)^bearer\s+.+`),

	// Basic auth
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),

	// API keys in the common sk-/pk- prefix formats
	regexp.MustCompile(`^[sp]k-[A-Za-z0-9_-]{16,}$`),
}

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// DefaultMaxAttrLen is the longest string attribute the handler passes
// through unmodified. Page HTML and DOM snapshots routinely exceed this.
const DefaultMaxAttrLen = 512

// Handler wraps an slog.Handler to mask credentials and truncate oversized
// string attributes before records reach the underlying handler.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Components keep accepting a plain *slog.Logger
type Handler struct {
	// handler is the underlying slog handler that receives cleaned records.
	handler slog.Handler

	// maxAttrLen is the truncation threshold for string attribute values.
	maxAttrLen int
}

// NewHandler creates a Handler wrapping the given handler.
// If handler is nil, the returned Handler uses slog.Default().Handler().
func NewHandler(handler slog.Handler) *Handler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &Handler{handler: handler, maxAttrLen: DefaultMaxAttrLen}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle cleans the record's attributes and passes it on.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	cleaned := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		cleaned.AddAttrs(h.cleanAttr(a))
		return true
	})

	return h.handler.Handle(ctx, cleaned)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are cleaned before being added.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cleanedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		cleanedAttrs[i] = h.cleanAttr(a)
	}
	return &Handler{handler: h.handler.WithAttrs(cleanedAttrs), maxAttrLen: h.maxAttrLen}
}

// WithGroup returns a new handler with the given group name.
func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{handler: h.handler.WithGroup(name), maxAttrLen: h.maxAttrLen}
}

// cleanAttr masks or truncates a single attribute, recursively handling
// groups.
func (h *Handler) cleanAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		cleanedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			cleanedAttrs[i] = h.cleanAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(cleanedAttrs...)}
	}

	keyLower := strings.ToLower(a.Key)
	if sensitiveKeys[keyLower] || containsSensitiveKeyword(keyLower) {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		if isSensitiveValue(strVal) {
			return slog.String(a.Key, MaskValue)
		}
		if len(strVal) > h.maxAttrLen {
			return slog.String(a.Key, truncate(strVal, h.maxAttrLen))
		}
	}

	return a
}

// truncate shortens s to max bytes plus a marker noting the original size.
// The cut avoids splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	cut := max
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return fmt.Sprintf("%s... (%d bytes total)", s[:cut], len(s))
}

// containsSensitiveKeyword checks if the key contains sensitive keywords.
// Note: We intentionally exclude the bare "key" keyword as it causes false
// positives (e.g. "primary_key", "keyboard"). Specific key-related patterns
// like "api_key" and "secret_key" are covered by the sensitiveKeys map.
func containsSensitiveKeyword(key string) bool {
	sensitiveKeywords := []string{
		"password", "passwd", "secret", "token", "auth", "credential",
	}

	for _, keyword := range sensitiveKeywords {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

// isSensitiveValue checks if a value matches sensitive patterns.
func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// NewLogger creates a text-format slog.Logger with masking and truncation.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Info
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(NewHandler(slog.NewTextHandler(w, opts)))
}

// NewJSONLogger creates a JSON-format slog.Logger with masking and
// truncation. Useful for structured log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(NewHandler(slog.NewJSONHandler(w, opts)))
}

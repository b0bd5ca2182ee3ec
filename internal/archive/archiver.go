package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// maxNameLen bounds the sanitized URL portion of a snapshot filename.
// Long URLs are common on paginated sites; the hash suffix keeps truncated
// names unique.
const maxNameLen = 120

// Archiver writes one-time HTML snapshots of visited pages to a directory.
type Archiver struct {
	// dir is the destination directory for snapshots.
	dir string

	// logger is used for structured logging.
	logger *slog.Logger
}

// Option configures an Archiver.
type Option func(*Archiver)

// WithLogger sets a custom logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archiver) {
		a.logger = logger
	}
}

// New creates an Archiver rooted at dir, creating the directory if needed.
func New(dir string, opts ...Option) (*Archiver, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	a := &Archiver{dir: dir}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a, nil
}

// Archive writes the HTML snapshot for url. If a snapshot already exists
// for the same canonical URL the call is a no-op and reports written=false;
// the first write wins.
func (a *Archiver) Archive(url, html string) (written bool, err error) {
	path := filepath.Join(a.dir, SnapshotName(url))

	// O_EXCL makes first-write-wins atomic even if two runs race.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0640)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			a.logger.Debug("snapshot already archived", "url", url, "path", path)
			return false, nil
		}
		return false, fmt.Errorf("failed to create snapshot %s: %w", path, err)
	}

	_, werr := f.WriteString(html)
	cerr := f.Close()
	if werr != nil {
		// A half-written snapshot would violate the immutable-record
		// contract, so remove it and let a future run retry.
		_ = os.Remove(path)
		return false, fmt.Errorf("failed to write snapshot %s: %w", path, werr)
	}
	if cerr != nil {
		_ = os.Remove(path)
		return false, fmt.Errorf("failed to close snapshot %s: %w", path, cerr)
	}

	a.logger.Debug("page archived", "url", url, "path", path)
	return true, nil
}

// Exists reports whether a snapshot for url has already been written.
func (a *Archiver) Exists(url string) bool {
	_, err := os.Stat(filepath.Join(a.dir, SnapshotName(url)))
	return err == nil
}

// SnapshotName derives the snapshot filename for a canonical URL.
// Unsafe characters are replaced and a short content hash of the full URL is
// appended so distinct URLs never collide after sanitization or truncation.
func SnapshotName(url string) string {
	sum := sha256.Sum256([]byte(url))
	short := hex.EncodeToString(sum[:6])

	var b strings.Builder
	for _, r := range url {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	name := b.String()
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	return name + "-" + short + ".html"
}

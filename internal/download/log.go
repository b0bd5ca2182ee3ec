package download

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/docharvest/docharvest/internal/model"
)

// Log is the durable, append-only record of every download attempt.
// It is the single source of truth for cross-run dedup.
type Log struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// path is the SQLite database file location.
	path string
}

// OpenLog opens or creates the download log inside dir.
func OpenLog(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	path := filepath.Join(dir, "downloads.db")

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open download log: %w", err)
	}

	// SQLite supports one writer; funnel everything through one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	l := &Log{db: db, path: path}

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := l.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return l, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

// createTables creates the log schema if it doesn't exist.
func (l *Log) createTables() error {
	schema := `
	-- One row per download attempt. Rows are never updated or deleted;
	-- the same URL may appear once as failed and later as success.
	CREATE TABLE IF NOT EXISTS downloads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		destination TEXT,
		outcome TEXT NOT NULL,
		source_page TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_downloads_url ON downloads(url);
	CREATE INDEX IF NOT EXISTS idx_downloads_outcome ON downloads(outcome);
	`

	_, err := l.db.ExecContext(context.Background(), schema)
	return err
}

// Append writes one attempt record. Records are immutable once written.
func (l *Log) Append(ctx context.Context, rec model.DownloadRecord) error {
	query := `
	INSERT INTO downloads (url, destination, outcome, source_page)
	VALUES (?, ?, ?, ?)
	`

	_, err := l.db.ExecContext(ctx, query,
		rec.URL,
		rec.Destination,
		rec.Outcome.String(),
		rec.SourcePage,
	)
	if err != nil {
		return fmt.Errorf("failed to append download record: %w", err)
	}
	return nil
}

// SuccessURLs returns every URL with at least one success record.
// This is the dedup set loaded at startup.
func (l *Log) SuccessURLs(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT url FROM downloads
	WHERE outcome = 'success'
	`

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query successes: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan success row: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// Records returns all attempt records in append order.
func (l *Log) Records(ctx context.Context) ([]model.DownloadRecord, error) {
	query := `
	SELECT url, destination, outcome, source_page, timestamp
	FROM downloads
	ORDER BY id
	`

	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var recs []model.DownloadRecord
	for rows.Next() {
		var rec model.DownloadRecord
		var dest, source sql.NullString
		var outcome, ts string

		if err := rows.Scan(&rec.URL, &dest, &outcome, &source, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.Destination = dest.String
		rec.SourcePage = source.String
		rec.Outcome = model.ParseOutcome(outcome)
		rec.Timestamp = parseTimestamp(ts)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// timestampFormats contains the timestamp formats SQLite may return,
// most specific first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses a stored timestamp, falling back to zero time on
// unrecognized formats rather than failing the read.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

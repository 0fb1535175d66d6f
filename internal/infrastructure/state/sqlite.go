package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/shelfsync/backend/internal/domain"
	"github.com/shelfsync/backend/internal/infrastructure/logger"
)

// URL status values
const (
	StatusDone   = "done"
	StatusFailed = "failed"
)

const schema = `
CREATE TABLE IF NOT EXISTS crawl_urls (
	url        TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	status     TEXT NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS crawl_urls_run_status ON crawl_urls (run_id, status);
`

// SQLiteStore persists crawl progress in a single SQLite file so that an
// interrupted batch can resume. A failed URL counts as processed.
type SQLiteStore struct {
	db     *sql.DB
	logger logger.Logger
}

// Stats counts the URLs known to the store by status.
type Stats struct {
	Done   int `json:"done"`
	Failed int `json:"failed"`
}

// Open opens, and if needed creates, the state database at path.
func Open(ctx context.Context, path string, log logger.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = logger.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping state database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create state schema: %w", err)
	}

	log.Info("State database ready", logger.String("path", path))
	return &SQLiteStore{db: db, logger: log}, nil
}

// IsProcessed reports whether url was handled by any earlier run.
func (s *SQLiteStore) IsProcessed(ctx context.Context, url string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM crawl_urls WHERE url = ?`, url).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query url state: %w", err)
	}
	return n > 0, nil
}

// MarkProcessed records url as done by runID.
func (s *SQLiteStore) MarkProcessed(ctx context.Context, runID, url string) error {
	return s.upsert(ctx, runID, url, StatusDone, "")
}

// MarkFailed records url as failed by runID with the failure reason.
func (s *SQLiteStore) MarkFailed(ctx context.Context, runID, url, reason string) error {
	return s.upsert(ctx, runID, url, StatusFailed, reason)
}

func (s *SQLiteStore) upsert(ctx context.Context, runID, url, status, reason string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO crawl_urls (url, run_id, status, reason, updated_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(url) DO UPDATE SET
	run_id = excluded.run_id,
	status = excluded.status,
	reason = excluded.reason,
	updated_at = excluded.updated_at`,
		url, runID, status, reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record url state: %w", err)
	}
	return nil
}

// FailedURLs lists the URLs that failed in runID, oldest first. An empty
// runID lists the failures of every run.
func (s *SQLiteStore) FailedURLs(ctx context.Context, runID string) ([]domain.FailedURL, error) {
	query := `SELECT run_id, url, reason, updated_at FROM crawl_urls WHERE status = ?`
	args := []interface{}{StatusFailed}
	if runID != "" {
		query += ` AND run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY updated_at, url`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed urls: %w", err)
	}
	defer rows.Close()

	failed := []domain.FailedURL{}
	for rows.Next() {
		var f domain.FailedURL
		if err := rows.Scan(&f.RunID, &f.URL, &f.Reason, &f.FailedAt); err != nil {
			return nil, fmt.Errorf("scan failed url: %w", err)
		}
		failed = append(failed, f)
	}
	return failed, rows.Err()
}

// Retry forgets the failed URLs so the next run attempts them again. It
// returns the number of URLs released.
func (s *SQLiteStore) Retry(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM crawl_urls WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("release failed urls: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Stats returns the number of done and failed URLs.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM crawl_urls GROUP BY status`)
	if err != nil {
		return st, fmt.Errorf("query state stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return st, fmt.Errorf("scan state stats: %w", err)
		}
		switch status {
		case StatusDone:
			st.Done = n
		case StatusFailed:
			st.Failed = n
		}
	}
	return st, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

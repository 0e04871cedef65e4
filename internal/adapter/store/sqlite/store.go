package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ttbonn/reviewagent/internal/store"
)

// Store implements the store.Store interface using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for an in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- One row per finding posted to a pull request
	CREATE TABLE IF NOT EXISTS posted_findings (
		owner TEXT NOT NULL,
		repo TEXT NOT NULL,
		pull_number INTEGER NOT NULL,
		fingerprint TEXT NOT NULL,
		rule TEXT NOT NULL,
		file TEXT NOT NULL,
		posted_at INTEGER NOT NULL,
		PRIMARY KEY (owner, repo, pull_number, fingerprint)
	);

	-- One row per processed webhook delivery
	CREATE TABLE IF NOT EXISTS deliveries (
		delivery_id TEXT PRIMARY KEY,
		received_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_posted_findings_pull
		ON posted_findings(owner, repo, pull_number);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// MarkPosted records that a finding was posted to a pull request.
// Recording the same fingerprint twice is not an error.
func (s *Store) MarkPosted(ctx context.Context, posted store.PostedFinding) error {
	query := `
	INSERT OR IGNORE INTO posted_findings
		(owner, repo, pull_number, fingerprint, rule, file, posted_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		posted.Owner,
		posted.Repo,
		posted.PullNumber,
		posted.Fingerprint,
		posted.Rule,
		posted.File,
		posted.PostedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record posted finding: %w", err)
	}
	return nil
}

// WasPosted reports whether a fingerprint was already posted.
func (s *Store) WasPosted(ctx context.Context, owner, repo string, pullNumber int, fingerprint string) (bool, error) {
	query := `
	SELECT COUNT(1) FROM posted_findings
	WHERE owner = ? AND repo = ? AND pull_number = ? AND fingerprint = ?`

	var count int
	err := s.db.QueryRowContext(ctx, query, owner, repo, pullNumber, fingerprint).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query posted finding: %w", err)
	}
	return count > 0, nil
}

// ListPosted returns the fingerprints already posted to a pull request.
func (s *Store) ListPosted(ctx context.Context, owner, repo string, pullNumber int) (map[string]bool, error) {
	query := `
	SELECT fingerprint FROM posted_findings
	WHERE owner = ? AND repo = ? AND pull_number = ?`

	rows, err := s.db.QueryContext(ctx, query, owner, repo, pullNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to list posted findings: %w", err)
	}
	defer rows.Close()

	fingerprints := make(map[string]bool)
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint: %w", err)
		}
		fingerprints[fp] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fingerprints: %w", err)
	}
	return fingerprints, nil
}

// MarkDelivery records a webhook delivery ID, returning false when the
// delivery was processed before.
func (s *Store) MarkDelivery(ctx context.Context, deliveryID string) (bool, error) {
	query := `INSERT OR IGNORE INTO deliveries (delivery_id, received_at) VALUES (?, ?)`

	result, err := s.db.ExecContext(ctx, query, deliveryID, time.Now().Unix())
	if err != nil {
		return false, fmt.Errorf("failed to record delivery: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

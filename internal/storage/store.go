// Package storage keeps a SQLite-backed audit trail of issued assessments.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps SQLite-backed persistence for the assessment audit trail.
type Store struct {
	db *sql.DB
}

// Open initializes a SQLite database and runs minimal schema setup.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := configure(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialized")
	}
	return s.db.PingContext(ctx)
}

func configure(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pragmas := []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("set pragma %q: %w", p, err)
		}
	}
	return nil
}

func migrate(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	schema := `
CREATE TABLE IF NOT EXISTS assessments (
  id            INTEGER PRIMARY KEY AUTOINCREMENT,
  network       TEXT NOT NULL,
  txhash        TEXT NOT NULL,
  tx_type       TEXT NOT NULL,
  protocol      TEXT,
  risk_score    REAL NOT NULL,
  payload_json  TEXT,
  created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_assessments_txhash ON assessments(network, txhash);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Assessment is one audited analysis outcome.
type Assessment struct {
	Network     string
	TxHash      string
	TxType      string
	Protocol    string
	RiskScore   float64
	PayloadJSON string
	CreatedAt   time.Time
}

// InsertAssessment appends an assessment to the audit trail.
func (s *Store) InsertAssessment(ctx context.Context, a Assessment) error {
	if a.Network == "" || a.TxHash == "" || a.TxType == "" {
		return errors.New("network, txhash, and tx_type are required")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO assessments (network, txhash, tx_type, protocol, risk_score, payload_json, created_at)
VALUES (?, ?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP));
`, a.Network, a.TxHash, a.TxType, a.Protocol, a.RiskScore, a.PayloadJSON, nullTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

// RecentAssessments returns up to limit assessments, newest first.
func (s *Store) RecentAssessments(ctx context.Context, limit int) ([]Assessment, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT network, txhash, tx_type, COALESCE(protocol, ''), risk_score, COALESCE(payload_json, ''), created_at
FROM assessments
ORDER BY id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}
	defer rows.Close()

	var out []Assessment
	for rows.Next() {
		var a Assessment
		if err := rows.Scan(&a.Network, &a.TxHash, &a.TxType, &a.Protocol, &a.RiskScore, &a.PayloadJSON, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assessments: %w", err)
	}
	return out, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

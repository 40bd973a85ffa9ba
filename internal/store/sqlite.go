package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/splitkit/splitkit/internal/experiment"
)

var ErrNotFound = errors.New("not found")

type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    experiment_id TEXT NOT NULL,
    variant_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    metrics TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_experiment ON events(experiment_id);
CREATE INDEX IF NOT EXISTS idx_events_experiment_variant ON events(experiment_id, variant_id);
CREATE INDEX IF NOT EXISTS idx_events_experiment_user ON events(experiment_id, user_id);
`

func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Apply schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InsertEvent stores one result. Redelivered events (same id) are ignored,
// so the recorder's retries cannot double-count.
func (s *SQLiteStore) InsertEvent(ctx context.Context, r experiment.Result) error {
	metricsJSON, err := json.Marshal(r.Metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO events (id, experiment_id, variant_id, user_id, metrics, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.ExperimentID, r.VariantID, r.UserID, string(metricsJSON), r.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

// Events returns every stored result for the experiment, oldest first.
func (s *SQLiteStore) Events(ctx context.Context, experimentID string) ([]experiment.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, experiment_id, variant_id, user_id, metrics, created_at
		 FROM events WHERE experiment_id = ? ORDER BY created_at ASC`,
		experimentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []experiment.Result
	for rows.Next() {
		var r experiment.Result
		var metricsJSON string
		if err := rows.Scan(&r.ID, &r.ExperimentID, &r.VariantID, &r.UserID, &metricsJSON, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(metricsJSON), &r.Metrics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
		}
		events = append(events, r)
	}

	return events, rows.Err()
}

// EventCount returns the total number of stored events.
func (s *SQLiteStore) EventCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

// ExperimentCounts returns the event count per experiment id.
func (s *SQLiteStore) ExperimentCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT experiment_id, COUNT(*) FROM events GROUP BY experiment_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count per experiment: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[id] = n
	}

	return counts, rows.Err()
}

// DB returns the underlying database connection for health checks
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

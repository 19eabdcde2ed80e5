package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SummaryStore is the SQLite summary cache. It satisfies cache.Store.
type SummaryStore struct {
	db *DB
}

// Summaries returns the summary cache backed by this database
func (db *DB) Summaries() *SummaryStore {
	return &SummaryStore{db: db}
}

// Get looks up a cached summary
func (s *SummaryStore) Get(ctx context.Context, key string) (string, bool, error) {
	var summary string
	err := s.db.QueryRowContext(ctx, "SELECT summary FROM summary_cache WHERE cache_key = ?", key).Scan(&summary)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read summary cache: %w", err)
	}
	return summary, true, nil
}

// Put stores or replaces a summary
func (s *SummaryStore) Put(ctx context.Context, key, summary string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO summary_cache (cache_key, summary)
		VALUES (?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			summary = excluded.summary,
			created_at = CURRENT_TIMESTAMP
	`, key, summary)
	if err != nil {
		return fmt.Errorf("failed to write summary cache: %w", err)
	}
	return nil
}

// Clear empties the cache
func (s *SummaryStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM summary_cache"); err != nil {
		return fmt.Errorf("failed to clear summary cache: %w", err)
	}
	return nil
}

// Len counts cached summaries
func (s *SummaryStore) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM summary_cache").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count summary cache: %w", err)
	}
	return n, nil
}

// All returns every cached summary keyed by cache key
func (s *SummaryStore) All(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT cache_key, summary FROM summary_cache")
	if err != nil {
		return nil, fmt.Errorf("failed to list summary cache: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

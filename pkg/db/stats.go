package db

import (
	"fmt"

	"github.com/dtnitsch/docufind/models"
)

// Counter names
const (
	StatTotalScans         = "totalScans"
	StatTotalItems         = "totalItems"
	StatSummariesGenerated = "summariesGenerated"
)

// IncrementStat adds delta to a usage counter
func (db *DB) IncrementStat(name string, delta int64) error {
	_, err := db.Exec(`
		INSERT INTO stats (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = value + excluded.value
	`, name, delta)
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", name, err)
	}
	return nil
}

// RecordScanStats counts one scan and the items it returned
func (db *DB) RecordScanStats(itemCount int) error {
	if err := db.IncrementStat(StatTotalScans, 1); err != nil {
		return err
	}
	return db.IncrementStat(StatTotalItems, int64(itemCount))
}

// GetStats reads all counters, zero when never incremented
func (db *DB) GetStats() (models.Stats, error) {
	var stats models.Stats

	rows, err := db.Query("SELECT name, value FROM stats")
	if err != nil {
		return stats, fmt.Errorf("failed to read stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var value int64
		if err := rows.Scan(&name, &value); err != nil {
			return stats, fmt.Errorf("failed to scan stat: %w", err)
		}
		switch name {
		case StatTotalScans:
			stats.TotalScans = value
		case StatTotalItems:
			stats.TotalItems = value
		case StatSummariesGenerated:
			stats.SummariesGenerated = value
		}
	}
	return stats, rows.Err()
}

// ClearStats resets every counter
func (db *DB) ClearStats() error {
	if _, err := db.Exec("DELETE FROM stats"); err != nil {
		return fmt.Errorf("failed to clear stats: %w", err)
	}
	return nil
}

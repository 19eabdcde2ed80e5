package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dtnitsch/docufind/models"
)

// Scan statuses
const (
	ScanSuccess = "success"
	ScanFailed  = "failed"
)

// Scan represents one recorded scan run
type Scan struct {
	ScanID       int64     `json:"scan_id" yaml:"scan_id"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
	Source       string    `json:"source" yaml:"source"`
	Platform     string    `json:"platform" yaml:"platform"`
	ChatTitle    string    `json:"chat_title,omitempty" yaml:"chat_title,omitempty"`
	ItemCount    int       `json:"item_count" yaml:"item_count"`
	Status       string    `json:"status" yaml:"status"`
	ErrorMessage string    `json:"error_message,omitempty" yaml:"error_message,omitempty"`
}

// RecordScan stores a scan and its items. A non-nil scanErr records a
// failed scan with no items.
func (db *DB) RecordScan(source, platform, chatTitle string, items []models.ScannedItem, scanErr error) (int64, error) {
	status := ScanSuccess
	errMsg := ""
	if scanErr != nil {
		status = ScanFailed
		errMsg = scanErr.Error()
		items = nil
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin scan transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.Exec(`
		INSERT INTO scans (source, platform, chat_title, item_count, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?)
	`, source, platform, NewNullString(chatTitle), len(items), status, NewNullString(errMsg))
	if err != nil {
		return 0, fmt.Errorf("failed to create scan: %w", err)
	}

	scanID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get scan ID: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO scan_items (scan_id, item_id, type, name, href, src, text, alt, timestamp, message_index, platform)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare scan item insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		if _, err := stmt.Exec(scanID, it.ID, string(it.Type), it.Name, nullPtr(it.Href), nullPtr(it.Src),
			NewNullString(it.Text), NewNullString(it.Alt), it.Timestamp, it.MessageIndex, it.Platform); err != nil {
			return 0, fmt.Errorf("failed to insert scan item %s: %w", it.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit scan: %w", err)
	}
	return scanID, nil
}

func nullPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return NewNullString(*s)
}

const scanColumns = `scan_id, created_at, source, platform, chat_title, item_count, status, error_message`

func scanRow(row interface{ Scan(...any) error }) (Scan, error) {
	var s Scan
	var chatTitle, errMsg sql.NullString
	err := row.Scan(&s.ScanID, &s.CreatedAt, &s.Source, &s.Platform, &chatTitle, &s.ItemCount, &s.Status, &errMsg)
	s.ChatTitle = chatTitle.String
	s.ErrorMessage = errMsg.String
	return s, err
}

// GetScanByID retrieves a scan by its ID
func (db *DB) GetScanByID(scanID int64) (*Scan, error) {
	s, err := scanRow(db.QueryRow("SELECT "+scanColumns+" FROM scans WHERE scan_id = ?", scanID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("scan %d not found", scanID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}
	return &s, nil
}

// GetScanItems retrieves the items of a scan in the order they were returned
func (db *DB) GetScanItems(scanID int64) ([]models.ScannedItem, error) {
	rows, err := db.Query(`
		SELECT item_id, type, name, href, src, text, alt, timestamp, message_index, platform
		FROM scan_items
		WHERE scan_id = ?
		ORDER BY id
	`, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan items: %w", err)
	}
	defer rows.Close()

	var items []models.ScannedItem
	for rows.Next() {
		var it models.ScannedItem
		var typ string
		var name, href, src, text, alt sql.NullString
		if err := rows.Scan(&it.ID, &typ, &name, &href, &src, &text, &alt,
			&it.Timestamp, &it.MessageIndex, &it.Platform); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		it.Type = models.ItemType(typ)
		it.Name = name.String
		it.Href = models.StrPtr(href.String)
		it.Src = models.StrPtr(src.String)
		it.Text = text.String
		it.Alt = alt.String
		items = append(items, it)
	}

	return items, rows.Err()
}

// ListScans retrieves scans ordered by most recent first
func (db *DB) ListScans(limit int) ([]Scan, error) {
	query := "SELECT " + scanColumns + " FROM scans ORDER BY created_at DESC, scan_id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return db.queryScans(query)
}

// QueryScans filters scans based on criteria
func (db *DB) QueryScans(todayOnly bool, failedOnly bool, platform string) ([]Scan, error) {
	query := "SELECT " + scanColumns + " FROM scans"

	var conditions []string
	var args []interface{}

	if todayOnly {
		conditions = append(conditions, "DATE(created_at) = DATE('now')")
	}
	if failedOnly {
		conditions = append(conditions, "status = ?")
		args = append(args, ScanFailed)
	}
	if platform != "" {
		conditions = append(conditions, "LOWER(platform) LIKE ?")
		args = append(args, "%"+strings.ToLower(platform)+"%")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, scan_id DESC"

	return db.queryScans(query, args...)
}

func (db *DB) queryScans(query string, args ...interface{}) ([]Scan, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	var scans []Scan
	for rows.Next() {
		s, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scan row: %w", err)
		}
		scans = append(scans, s)
	}

	return scans, rows.Err()
}

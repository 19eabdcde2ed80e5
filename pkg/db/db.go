package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const DefaultDBName = "docufind.db"

// PathEnv overrides the database location.
const PathEnv = "DOCUFIND_DB"

type DB struct {
	*sql.DB
	path string
}

var pragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA busy_timeout = 5000",
}

func openDB(dbPath string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	for _, p := range pragmas {
		if _, err := sqlDB.Exec(p); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return sqlDB, nil
}

// DefaultPath is $DOCUFIND_DB, else docufind/docufind.db under the user
// config directory, else next to the binary.
func DefaultPath() (string, error) {
	if p := os.Getenv(PathEnv); p != "" {
		return p, nil
	}
	if dir, err := os.UserConfigDir(); err == nil {
		dir = filepath.Join(dir, "docufind")
		if err := os.MkdirAll(dir, 0o755); err == nil {
			return filepath.Join(dir, DefaultDBName), nil
		}
	}
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate database: %w", err)
	}
	return filepath.Join(filepath.Dir(execPath), DefaultDBName), nil
}

// Open opens or creates the database at DefaultPath.
func Open() (*DB, error) {
	dbPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return OpenAt(dbPath)
}

// OpenAt opens or creates the SQLite database at dbPath. The schema is
// created on first use.
func OpenAt(dbPath string) (*DB, error) {
	sqlDB, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}
	db := &DB{DB: sqlDB, path: dbPath}
	if err := db.ensureSchemaExists(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

func (db *DB) ensureSchemaExists() error {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='summary_cache'").Scan(&n)
	if err != nil {
		return fmt.Errorf("failed to check schema: %w", err)
	}
	if n == 0 {
		return db.InitSchema()
	}
	return nil
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// InitSchema initializes the database schema
func (db *DB) InitSchema() error {
	_, err := db.Exec(schema)
	return err
}

// NewNullString returns a NULL for empty strings
func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Package caching provides a file-backed summary cache. Each entry is one
// file named by the SHA256 of its key.
package caching

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const entryExt = ".json"

// FileStore stores summaries under a directory. Entries never expire.
type FileStore struct {
	path string
}

type entry struct {
	Key     string `json:"key"`
	Summary string `json:"summary"`
}

// NewFileStore creates a new FileStore.
// The cache path will be created if it doesn't exist.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// filename generates a SHA256 hash of the key to use as a filename.
func (c *FileStore) filename(key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(c.path, fmt.Sprintf("%x%s", hash, entryExt))
}

// Get retrieves a summary. A missing or unreadable file is a miss.
func (c *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	data, err := os.ReadFile(c.filename(key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil || e.Key != key {
		return "", false, nil
	}
	return e.Summary, true, nil
}

// Put adds or replaces a summary.
func (c *FileStore) Put(_ context.Context, key, summary string) error {
	data, err := json.Marshal(entry{Key: key, Summary: summary})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := os.WriteFile(c.filename(key), data, 0644); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// Clear removes every entry.
func (c *FileStore) Clear(_ context.Context) error {
	files, err := c.files()
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove cache entry: %w", err)
		}
	}
	return nil
}

// Len counts stored entries.
func (c *FileStore) Len(_ context.Context) (int, error) {
	files, err := c.files()
	return len(files), err
}

// All returns every readable entry.
func (c *FileStore) All(_ context.Context) (map[string]string, error) {
	files, err := c.files()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		var e entry
		if json.Unmarshal(data, &e) == nil {
			out[e.Key] = e.Summary
		}
	}
	return out, nil
}

func (c *FileStore) files() ([]string, error) {
	dirEntries, err := os.ReadDir(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache directory: %w", err)
	}
	var files []string
	for _, de := range dirEntries {
		if !de.IsDir() && strings.HasSuffix(de.Name(), entryExt) {
			files = append(files, filepath.Join(c.path, de.Name()))
		}
	}
	return files, nil
}

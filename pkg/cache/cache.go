// Package cache derives summary cache keys and defines the store contract
// shared by the memory, file and SQLite backends.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
)

// SnippetLen is the number of leading characters of a request's text that
// take part in its key.
const SnippetLen = 80

// Request is the part of a summary request that identifies its content.
type Request struct {
	Href string
	Text string
}

// keyShape fixes the field order of a serialized key.
type keyShape struct {
	Href    *string `json:"href"`
	Snippet string  `json:"snippet"`
}

// Key returns {"href":<href or null>,"snippet":<first 80 chars of text>}.
// Two requests with the same href and the same leading 80 characters map to
// the same key.
func Key(r Request) string {
	shape := keyShape{Snippet: snippet(r.Text)}
	if r.Href != "" {
		href := r.Href
		shape.Href = &href
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(shape); err != nil {
		// strings always encode
		panic(err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

func snippet(text string) string {
	r := []rune(text)
	if len(r) > SnippetLen {
		r = r[:SnippetLen]
	}
	return string(r)
}

// Store persists summaries by key. Entries never expire.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, summary string) error
	Clear(ctx context.Context) error
	Len(ctx context.Context) (int, error)
}

// Entries is implemented by stores that can list their content, used by export.
type Entries interface {
	All(ctx context.Context) (map[string]string, error)
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *Memory) Put(_ context.Context, key, summary string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = summary
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]string)
	return nil
}

func (m *Memory) Len(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// All returns a copy of every entry.
func (m *Memory) All(_ context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out, nil
}

package caching

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dtnitsch/docufind/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ cache.Store = (*FileStore)(nil)

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "summaries")
	fs, err := NewFileStore(dir)
	require.NoError(t, err)

	key := cache.Key(cache.Request{Href: "https://example.com/a.pdf"})
	_, ok, err := fs.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, fs.Put(ctx, key, "Title\n\n• point"))
	got, ok, err := fs.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Title\n\n• point", got)

	n, err := fs.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := fs.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{key: "Title\n\n• point"}, all)
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Put(ctx, "k", "v"))

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	got, ok, err := second.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestFileStore_Clear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, fs.Put(ctx, "a", "1"))
	require.NoError(t, fs.Put(ctx, "b", "2"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0644))

	require.NoError(t, fs.Clear(ctx))
	n, err := fs.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
}

package cache

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"href only", Request{Href: "https://example.com/a.pdf"}, `{"href":"https://example.com/a.pdf","snippet":""}`},
		{"text only", Request{Text: "hello"}, `{"href":null,"snippet":"hello"}`},
		{"html not escaped", Request{Href: "https://e.com/?a=1&b=<2>"}, `{"href":"https://e.com/?a=1&b=<2>","snippet":""}`},
		{"quotes escaped", Request{Text: `say "hi"`}, `{"href":null,"snippet":"say \"hi\""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.req))
		})
	}
}

func TestKey_SnippetTruncation(t *testing.T) {
	base := strings.Repeat("a", SnippetLen)
	k1 := Key(Request{Text: base + "first tail"})
	k2 := Key(Request{Text: base + "second tail"})
	assert.Equal(t, k1, k2, "only the first 80 characters count")
	assert.NotEqual(t, k1, Key(Request{Text: strings.Repeat("b", SnippetLen)}))
}

func TestKey_SnippetCountsRunes(t *testing.T) {
	text := strings.Repeat("é", SnippetLen+5)
	k := Key(Request{Text: text})
	assert.Equal(t, `{"href":null,"snippet":"`+strings.Repeat("é", SnippetLen)+`"}`, k)
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Put(ctx, "k", "summary"))
	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "summary", v)

	require.NoError(t, m.Put(ctx, "k", "newer"))
	n, _ := m.Len(ctx)
	assert.Equal(t, 1, n)

	all, err := m.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"k": "newer"}, all)

	require.NoError(t, m.Clear(ctx))
	n, _ = m.Len(ctx)
	assert.Zero(t, n)
}

package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dtnitsch/docufind/internal/common"
	"github.com/dtnitsch/docufind/models"
	"github.com/dtnitsch/docufind/pkg/cache"
	"github.com/dtnitsch/docufind/pkg/caching"
	summarizepkg "github.com/dtnitsch/docufind/pkg/summarize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestForHref(t *testing.T) {
	req := RequestForHref("https://example.com/files/plan.pdf")
	assert.Equal(t, models.SourceDocument, req.Source)
	assert.Equal(t, "plan.pdf", req.Name)
	assert.Equal(t, "https://example.com/files/plan.pdf", req.Href)
	assert.NotEmpty(t, req.ItemID)

	req = RequestForHref("https://example.com/")
	assert.Equal(t, models.SourceLink, req.Source)
	assert.Empty(t, req.Name)
}

func TestSelectRequests(t *testing.T) {
	items := []models.ScannedItem{
		{ID: "0-0", Type: models.ItemImage, Name: "cat", Src: models.StrPtr("https://x/cat.png"), Href: models.StrPtr("https://x/cat.png")},
		{ID: "0-link-0", Type: models.ItemLink, Name: "https://x", Href: models.StrPtr("https://x")},
	}

	reqs, err := SelectRequests(items, []string{"0-link-0"}, false)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "0-link-0", reqs[0].ItemID)
	assert.Equal(t, models.SourceLink, reqs[0].Source)

	reqs, err = SelectRequests(items, nil, true)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, models.SourceImage, reqs[0].Source)

	_, err = SelectRequests(items, []string{"9-9"}, false)
	assert.Error(t, err)
}

func TestOpenStore_FileCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	store, err := OpenStore(nil, dir, "")
	require.NoError(t, err)
	_, ok := store.(*caching.FileStore)
	assert.True(t, ok)

	store, err = OpenStore(nil, "", dir)
	require.NoError(t, err)
	_, ok = store.(*caching.FileStore)
	assert.True(t, ok, "config directory used when the flag is empty")
}

func TestSummarizeViaRelay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"summary": map[string]interface{}{"title": "Notes", "bullets": []string{body["text"].(string)}},
		})
	}))
	defer srv.Close()

	store := cache.NewMemory()
	svc := summarizepkg.NewService(summarizepkg.NewClient(srv.URL), store)
	req := models.SummaryRequest{Source: models.SourceText, Text: "ship it friday", ItemID: "t-1"}

	res, err := SummarizeViaRelay(context.Background(), svc, req, 5*time.Second, nil)
	require.NoError(t, err)
	assert.Equal(t, "t-1", res.ItemID)
	assert.Equal(t, "Notes\n\n• ship it friday", res.Summary)
	assert.False(t, res.Cached)

	res, err = SummarizeViaRelay(context.Background(), svc, req, 5*time.Second, nil)
	require.NoError(t, err)
	assert.True(t, res.Cached)
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	PrintResults(&buf, []models.SummaryResult{
		{ItemID: "a", Summary: "short"},
		{ItemID: "b", Error: "backend returned 500"},
	})
	out := buf.String()
	assert.Contains(t, out, "a\n=\nshort\n")
	assert.Contains(t, out, "b\n=\nError: backend returned 500\n")
}

func TestCacheHitRendersLikeLiveCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"summary": "Quarterly numbers are up."})
	}))
	defer srv.Close()

	svc := summarizepkg.NewService(summarizepkg.NewClient(srv.URL), cache.NewMemory())
	req := models.SummaryRequest{Source: models.SourceLink, Href: "https://example.com/q3", ItemID: "0-0"}

	live := svc.Summarize(context.Background(), req)
	hit := svc.Summarize(context.Background(), req)
	require.Equal(t, int32(1), calls.Load(), "second call served from cache")
	require.True(t, hit.Cached)

	render := func(r models.SummaryResult) map[string]string {
		out := map[string]string{}
		var text bytes.Buffer
		PrintResults(&text, []models.SummaryResult{r})
		out[FormatText] = text.String()
		for _, f := range []string{common.FormatJSON, common.FormatYAML} {
			var buf bytes.Buffer
			require.NoError(t, common.Render(&buf, f, []models.SummaryResult{r}))
			out[f] = buf.String()
		}
		return out
	}

	liveOut, hitOut := render(live), render(hit)
	for format, want := range liveOut {
		assert.Equal(t, want, hitOut[format], format)
	}
	assert.NotContains(t, hitOut[common.FormatJSON], "cached")
	assert.NotContains(t, hitOut[common.FormatYAML], "cached")
}

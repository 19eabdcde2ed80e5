package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const report = "The quarterly report shows revenue growth of twelve percent. " +
	"Costs stayed flat. " +
	"The team plans to hire four engineers before the summer release! " +
	"Is the budget approved for the new office in Lisbon? " +
	"This fifth sentence is never part of the naive summary."

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("One. Two!  Three?\nFour")
	assert.Equal(t, []string{"One.", "Two!", "Three?", "Four"}, got)
	assert.Equal(t, []string{"no punctuation here"}, SplitSentences("no punctuation here"))
	assert.Equal(t, []string{"v1.2 is out"}, SplitSentences("v1.2 is out"))
}

func TestTruncateLine(t *testing.T) {
	assert.Equal(t, "short", TruncateLine("short", 10))
	assert.Equal(t, "hello...", TruncateLine("hello wonderful world", 12))
	assert.Equal(t, "abcdefghij...", TruncateLine("abcdefghijklmnop", 10))
}

func TestNaiveSummary(t *testing.T) {
	sum := NaiveSummary(report)

	assert.NotContains(t, strings.Join(sum.Bullets, " "), "fifth sentence")
	require.Len(t, sum.Bullets, 3, "sentences of 20 characters or less are dropped")
	assert.Equal(t, "The team plans to hire four engineers before the summer release!", sum.Bullets[0], "longest first")
	assert.LessOrEqual(t, len([]rune(sum.Title)), maxTitleLen+3)
	assert.True(t, strings.HasSuffix(sum.Title, "..."))
}

func TestNaiveSummary_ShortText(t *testing.T) {
	sum := NaiveSummary("ok")
	assert.Equal(t, "ok", sum.Title)
	assert.Empty(t, sum.Bullets)
}

func TestGenerateBullets_Limits(t *testing.T) {
	long := strings.Repeat("word ", 100) + "end."
	var text []string
	for i := 0; i < 8; i++ {
		text = append(text, "This sentence is clearly long enough to count.")
	}
	text = append(text, long)

	bullets := GenerateBullets(strings.Join(text, " "))
	require.Len(t, bullets, maxBullets)
	assert.True(t, strings.HasSuffix(bullets[0], "..."))
	assert.LessOrEqual(t, len([]rune(bullets[0])), maxBulletLen+3)
}

func TestParseJSONBlock(t *testing.T) {
	sum, ok := ParseJSONBlock("Sure!\n```json\n{\"title\":\"T\",\"bullets\":[\"a\",\"b\"]}\n```")
	require.True(t, ok)
	assert.Equal(t, Summary{Title: "T", Bullets: []string{"a", "b"}}, sum)

	_, ok = ParseJSONBlock(`{"title":"T","bullets":[]}`)
	assert.False(t, ok)
	_, ok = ParseJSONBlock("plain words")
	assert.False(t, ok)
}

type fakeGen struct {
	out    string
	err    error
	prompt string
}

func (f *fakeGen) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.out, f.err
}

func post(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec, out
}

func TestAnalyze_Fallback(t *testing.T) {
	h := NewServer(nil, nil).Router()
	rec, out := post(t, h, `{"text":"`+report+`","max_tokens":400}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, true, out["fallback"])
	assert.Equal(t, "en", out["language"])
	summary := out["summary"].(map[string]any)
	assert.NotEmpty(t, summary["title"])
	assert.Len(t, summary["bullets"], 3)
}

func TestAnalyze_MissingInput(t *testing.T) {
	h := NewServer(nil, nil).Router()
	rec, out := post(t, h, `{"max_tokens":400}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No text or messages provided", out["detail"])
}

func TestAnalyze_Messages(t *testing.T) {
	gen := &fakeGen{out: `{"title":"Chat","bullets":["x"]}`}
	h := NewServer(gen, nil).Router()

	rec, out := post(t, h, `{"messages":["<b>hello</b> there",{"from":"bob"}]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, gen.prompt, "hello there\n{\"from\":\"bob\"}")
	assert.NotContains(t, gen.prompt, "<b>")
	assert.Equal(t, map[string]any{"title": "Chat", "bullets": []any{"x"}}, out["summary"])
	assert.Nil(t, out["fallback"])
}

func TestAnalyze_FreeTextModelOutput(t *testing.T) {
	gen := &fakeGen{out: "Budget review\nThe budget was approved for the next fiscal year. Hiring continues."}
	_, out := post(t, NewServer(gen, nil).Router(), `{"text":"anything at all"}`)

	summary := out["summary"].(map[string]any)
	assert.Equal(t, "Budget review", summary["title"])
	assert.NotEmpty(t, summary["bullets"])
}

func TestAnalyze_ModelError(t *testing.T) {
	gen := &fakeGen{err: errors.New("quota exceeded")}
	rec, out := post(t, NewServer(gen, nil).Router(), `{"text":"anything"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Gemini call failed", out["error"])
	assert.Contains(t, out["details"], "quota exceeded")
	assert.Nil(t, out["summary"])
}

func TestHealthzAndPreflight(t *testing.T) {
	h := NewServer(nil, nil).Router()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/analyze", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GEMINI_MODEL=from-file\nBACKEND_PORT=9999\n"), 0644))

	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("GEMINI_MODEL", "")
	os.Unsetenv("GEMINI_MODEL")
	t.Setenv("BACKEND_PORT", "7070")

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)
	assert.Equal(t, "k", cfg.GeminiAPIKey)
	assert.Equal(t, "from-file", cfg.GeminiModel)
	assert.Equal(t, 7070, cfg.Port, "environment wins over the file")
	assert.Equal(t, ":7070", cfg.Addr())

	_, err = LoadConfig(filepath.Join(dir, "missing.env"))
	assert.NoError(t, err)
}

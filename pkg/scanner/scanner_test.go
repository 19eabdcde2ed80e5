package scanner

import (
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/docufind/models"
	"github.com/dtnitsch/docufind/pkg/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const telegramPage = `<html><body>
<div class="chat-info"><span class="chat-title">Team</span></div>
<div class="messages-container">
  <div class="message">
    <span class="message-time">09:00</span>
    <a class="document" href="/files/report.pdf">Q3 report</a>
    <div class="message-content">see https://example.com/a</div>
  </div>
  <div class="message">
    <span class="message-time">8:00 AM</span>
    <img class="attachment" src="https://cdn.example.com/cat.png?size=100" alt="cat">
    <div class="message-content">again https://example.com/a</div>
  </div>
  <div class="message">
    <a class="document" href="https://x.example.com/song.mp3">song.mp3</a>
  </div>
  <div class="message">
    <a class="document"></a>
  </div>
</div>
</body></html>`

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func fixedClock() time.Time {
	return time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
}

func at(h, m int) int64 {
	return time.Date(2024, time.March, 10, h, m, 0, 0, time.UTC).UnixMilli()
}

func newTelegramScanner(t *testing.T) *Scanner {
	t.Helper()
	p, ok := platform.Default().ByID("telegram")
	require.True(t, ok)
	base, err := url.Parse("https://web.telegram.org/k/")
	require.NoError(t, err)
	return New(p, WithClock(fixedClock), WithBaseURL(base))
}

func TestScan(t *testing.T) {
	s := newTelegramScanner(t)

	items, err := s.Scan(mustDoc(t, telegramPage))
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, "1-2", items[0].ID)
	assert.Equal(t, models.ItemImage, items[0].Type)
	assert.Equal(t, "cat", items[0].Name)
	assert.Equal(t, "https://cdn.example.com/cat.png?size=100", *items[0].Src)
	assert.Equal(t, at(8, 0), items[0].Timestamp)
	assert.Equal(t, 1, items[0].MessageIndex)

	assert.Equal(t, "0-0", items[1].ID)
	assert.Equal(t, models.ItemDocument, items[1].Type)
	assert.Equal(t, "Q3 report", items[1].Name)
	assert.Equal(t, "https://web.telegram.org/files/report.pdf", *items[1].Href)
	assert.Equal(t, at(9, 0), items[1].Timestamp)

	assert.Equal(t, "0-link-0", items[2].ID)
	assert.Equal(t, models.ItemLink, items[2].Type)
	assert.Equal(t, "https://example.com/a", items[2].Name)
	assert.Equal(t, at(9, 0), items[2].Timestamp)

	assert.Equal(t, "2-4", items[3].ID)
	assert.Equal(t, models.ItemMedia, items[3].Type)
	assert.Equal(t, fixedClock().UnixMilli(), items[3].Timestamp, "missing timestamp falls back to scan time")

	for _, it := range items {
		assert.Equal(t, "Telegram", it.Platform)
	}
}

func TestScan_Deduplicated(t *testing.T) {
	items, err := newTelegramScanner(t).Scan(mustDoc(t, telegramPage))
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, it := range items {
		key := it.DedupKey()
		assert.False(t, seen[key], "duplicate key %q", key)
		seen[key] = true
	}
}

func TestScan_SortedAscending(t *testing.T) {
	items, err := newTelegramScanner(t).Scan(mustDoc(t, telegramPage))
	require.NoError(t, err)
	for i := 1; i < len(items); i++ {
		assert.LessOrEqual(t, items[i-1].Timestamp, items[i].Timestamp)
	}
}

func TestScan_Idempotent(t *testing.T) {
	s := newTelegramScanner(t)
	doc := mustDoc(t, telegramPage)

	first, err := s.Scan(doc)
	require.NoError(t, err)
	second, err := s.Scan(doc)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestScan_ContainerNotFound(t *testing.T) {
	items, err := newTelegramScanner(t).Scan(mustDoc(t, `<div class="elsewhere"></div>`))
	assert.Nil(t, items)
	assert.True(t, errors.Is(err, ErrContainerNotFound))
}

func TestScan_PanickingMessageSkipped(t *testing.T) {
	page := `<div class="messages-container">
  <div class="message"><span class="message-time">09:00</span><a class="document" href="/a.pdf">a.pdf</a></div>
  <div class="message"><span class="message-time">09:05</span><a class="document" href="/bad.pdf">bad.pdf</a>
    <div class="message-content">lost https://example.com/lost</div></div>
  <div class="message"><span class="message-time">09:10</span><a class="document" href="/c.pdf">c.pdf</a></div>
</div>`
	s := newTelegramScanner(t)
	extract := s.extract
	s.extract = func(el *goquery.Selection) (models.ScannedItem, bool) {
		if el.AttrOr("href", "") == "/bad.pdf" {
			panic("malformed attachment")
		}
		return extract(el)
	}

	items, err := s.Scan(mustDoc(t, page))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a.pdf", items[0].Name)
	assert.Equal(t, 0, items[0].MessageIndex)
	assert.Equal(t, "c.pdf", items[1].Name)
	assert.Equal(t, 2, items[1].MessageIndex)
	for _, it := range items {
		assert.NotEqual(t, 1, it.MessageIndex, "nothing from the failed message")
	}
}

func TestScan_UnparseableTimestamp(t *testing.T) {
	page := `<div class="messages-container">
  <div class="message"><span class="message-time">sometime soon</span><a class="document" href="/a.pdf">a.pdf</a></div>
</div>`
	items, err := newTelegramScanner(t).Scan(mustDoc(t, page))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, fixedClock().UnixMilli(), items[0].Timestamp, "garbage timestamp falls back to scan time")
}

func TestScan_EmptyContainer(t *testing.T) {
	items, err := newTelegramScanner(t).Scan(mustDoc(t, `<div class="messages-container"></div>`))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		href string
		want models.ItemType
	}{
		{"report.pdf", "", models.ItemDocument},
		{"", "https://example.com/files/a.PDF", models.ItemDocument},
		{"", "https://example.com/a.docx?dl=1", models.ItemDocument},
		{"sheet.csv", "", models.ItemDocument},
		{"", "https://example.com/img.png?size=100", models.ItemImage},
		{"photo.JPEG", "", models.ItemImage},
		{"", "https://example.com/track.mp3", models.ItemMedia},
		{"clip.mov", "", models.ItemMedia},
		{"", "https://example.com", models.ItemLink},
		{"", "https://example.com/report.pdf.html", models.ItemLink},
		{"", "https://example.com/a.pdf#page=2", models.ItemLink},
		{"cover.png", "https://example.com/book.pdf", models.ItemDocument},
		{"Q3 report.pdf", "https://files.example.com/download?id=7", models.ItemLink},
		{"a.pdf", "https://cdn.example.com/b.png", models.ItemImage},
		{"notes.txt", "https://example.com/notes.txt?dl=1", models.ItemDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name+tt.href, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.name, tt.href))
		})
	}
}

func TestExtractLinks(t *testing.T) {
	got := ExtractLinks("a http://one.example and https://two.example/path?q=1\nhttps://three.example")
	assert.Equal(t, []string{"http://one.example", "https://two.example/path?q=1", "https://three.example"}, got)
	assert.Empty(t, ExtractLinks("no links here, ftp://nope"))
}

func TestDedupe_KeyPrecedence(t *testing.T) {
	items := []models.ScannedItem{
		{ID: "a", Href: models.StrPtr("https://x"), Name: "one"},
		{ID: "b", Src: models.StrPtr("https://x"), Name: "two"},
		{ID: "c", Name: "https://x"},
		{ID: "d", Name: "other"},
	}
	got := Dedupe(items)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "d", got[1].ID)
}

func TestSortByTimestamp_Stable(t *testing.T) {
	items := []models.ScannedItem{
		{ID: "a", Timestamp: 2},
		{ID: "b", Timestamp: 1},
		{ID: "c", Timestamp: 2},
		{ID: "d", Timestamp: 1},
	}
	SortByTimestamp(items)
	ids := []string{items[0].ID, items[1].ID, items[2].ID, items[3].ID}
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids)
}

func TestClosestTimestamp(t *testing.T) {
	doc := mustDoc(t, `<div data-timestamp="1700000000000"><p><span><a id="deep" href="/x">x</a></span></p></div>
<div><time datetime="2024-01-15T10:30:00Z"></time><a id="sibling" href="/y">y</a></div>`)

	ms, ok := ClosestTimestamp(doc.Find("#deep"), DefaultMaxDepth, fixedClock())
	assert.True(t, ok)
	assert.Equal(t, int64(1700000000000), ms)

	ms, ok = ClosestTimestamp(doc.Find("#sibling"), DefaultMaxDepth, fixedClock())
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC).UnixMilli(), ms)

	_, ok = ClosestTimestamp(doc.Find("#deep"), 2, fixedClock())
	assert.False(t, ok, "depth bound stops before the stamped ancestor")
}

func TestScanGeneric(t *testing.T) {
	doc := mustDoc(t, `<html><body>
<div data-timestamp="1000"><a href="https://example.com/budget.pdf">Budget</a></div>
<div data-timestamp="500"><img src="/logo.png" alt="logo"></div>
<a href="https://example.com/">Home</a>
</body></html>`)
	base, _ := url.Parse("https://example.com/page")

	items := ScanGeneric(doc, WithClock(fixedClock), WithBaseURL(base))
	require.Len(t, items, 3)

	assert.Equal(t, models.ItemImage, items[0].Type)
	assert.Equal(t, "https://example.com/logo.png", *items[0].Src)
	assert.Equal(t, "logo", items[0].Alt)
	assert.Equal(t, int64(500), items[0].Timestamp)

	assert.Equal(t, models.ItemDocument, items[1].Type, "document entry wins over the plain link for the same href")
	assert.Equal(t, "Budget", items[1].Name)
	assert.Equal(t, int64(1000), items[1].Timestamp)

	assert.Equal(t, models.ItemLink, items[2].Type)
	assert.Equal(t, "Home", items[2].Text)
	assert.Equal(t, fixedClock().UnixMilli(), items[2].Timestamp)
	assert.Equal(t, GenericPlatform, items[2].Platform)
}

func TestScanGeneric_Images(t *testing.T) {
	doc := mustDoc(t, `<html><body>
<img alt="placeholder one">
<img alt="placeholder two">
<img src="/a.png" alt="first">
<img data-src="/b.png">
</body></html>`)
	base, _ := url.Parse("https://example.com/page")

	items := ScanGeneric(doc, WithClock(fixedClock), WithBaseURL(base))
	require.Len(t, items, 2, "images without a source are skipped")

	assert.Equal(t, "first", items[0].Name)
	assert.Equal(t, "https://example.com/a.png", *items[0].Src)
	assert.Equal(t, "b.png", items[1].Name)
	assert.Equal(t, "https://example.com/b.png", *items[1].Src)
	assert.NotEqual(t, items[0].DedupKey(), items[1].DedupKey())
}

func TestGuard_SkipsOverlappingRuns(t *testing.T) {
	var g Guard
	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		g.TryRun(func() {
			close(started)
			<-release
		})
	}()

	<-started
	assert.True(t, g.Running())
	assert.False(t, g.TryRun(func() { t.Error("overlapping run executed") }))

	close(release)
	wg.Wait()
	assert.False(t, g.Running())
	assert.True(t, g.TryRun(func() {}))
}

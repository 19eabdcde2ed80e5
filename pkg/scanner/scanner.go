// Package scanner walks a chat page and collects the documents, images,
// media files and links its messages carry.
package scanner

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/docufind/models"
	"github.com/dtnitsch/docufind/pkg/platform"
	"github.com/dtnitsch/docufind/pkg/timeparse"
)

// ErrContainerNotFound is returned when the profile's chat container
// selector matches nothing. No partial result accompanies it.
var ErrContainerNotFound = errors.New("could not find chat messages")

// Scanner scans pages of one platform.
type Scanner struct {
	profile platform.Profile
	now     func() time.Time
	base    *url.URL
	logger  *slog.Logger
	extract func(el *goquery.Selection) (models.ScannedItem, bool)
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithClock replaces time.Now, used for the "time of scan" fallback.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// WithBaseURL resolves relative href/src attributes against base.
func WithBaseURL(base *url.URL) Option {
	return func(s *Scanner) { s.base = base }
}

// WithLogger sets the logger used for skipped messages.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// New creates a scanner for profile.
func New(profile platform.Profile, opts ...Option) *Scanner {
	s := &Scanner{
		profile: profile,
		now:     time.Now,
		logger:  slog.Default(),
	}
	s.extract = s.attachment
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Profile returns the profile the scanner was built for.
func (s *Scanner) Profile() platform.Profile {
	return s.profile
}

// Scan collects the items of every message in doc, deduplicated and sorted
// by ascending timestamp.
func (s *Scanner) Scan(doc *goquery.Document) ([]models.ScannedItem, error) {
	return s.ScanSelection(doc.Selection)
}

// ScanSelection is Scan over an arbitrary subtree.
func (s *Scanner) ScanSelection(root *goquery.Selection) ([]models.ScannedItem, error) {
	container := root.Find(s.profile.ChatContainer).First()
	if container.Length() == 0 {
		return nil, fmt.Errorf("%s: %w", s.profile.DisplayName, ErrContainerNotFound)
	}

	now := s.now()
	items := []models.ScannedItem{}
	container.Find(s.profile.Message).Each(func(i int, msg *goquery.Selection) {
		items = append(items, s.scanMessage(msg, i, len(items), now)...)
	})

	items = Dedupe(items)
	SortByTimestamp(items)
	return items, nil
}

// scanMessage returns the attachments then the text links of one message.
// A panic while reading the message drops its whole contribution.
func (s *Scanner) scanMessage(msg *goquery.Selection, index, offset int, now time.Time) (found []models.ScannedItem) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("skipping message", "platform", s.profile.DisplayName, "message_index", index, "error", r)
			found = nil
		}
	}()

	ts := s.messageTimestamp(msg, now)

	msg.Find(s.profile.Attachment).Each(func(_ int, el *goquery.Selection) {
		item, ok := s.extract(el)
		if !ok {
			return
		}
		item.ID = fmt.Sprintf("%d-%d", index, offset+len(found))
		item.Timestamp = ts
		item.MessageIndex = index
		found = append(found, item)
	})

	text := strings.TrimSpace(msg.Find(s.profile.Text).First().Text())
	for k, link := range ExtractLinks(text) {
		found = append(found, models.ScannedItem{
			ID:           fmt.Sprintf("%d-link-%d", index, k),
			Type:         models.ItemLink,
			Name:         link,
			Href:         models.StrPtr(link),
			Timestamp:    ts,
			MessageIndex: index,
			Platform:     s.profile.DisplayName,
		})
	}
	return found
}

func (s *Scanner) messageTimestamp(msg *goquery.Selection, now time.Time) int64 {
	el := msg.Find(s.profile.Timestamp).First()
	if el.Length() > 0 {
		raw := strings.TrimSpace(el.Text())
		if raw == "" {
			raw = el.AttrOr("datetime", "")
		}
		if ms, ok := timeparse.Parse(raw, now); ok {
			return ms
		}
	}
	return now.UnixMilli()
}

func (s *Scanner) attachment(el *goquery.Selection) (models.ScannedItem, bool) {
	href := firstAttr(el, "href", "data-src", "src")
	name := NormalizeText(el.Text())
	if name == "" {
		name = firstAttr(el, "alt", "title")
	}
	if href == "" && name == "" {
		return models.ScannedItem{}, false
	}

	href = s.resolve(href)
	typ := Classify(name, href)
	if name == "" {
		name = "Unknown File"
	}

	return models.ScannedItem{
		Type:     typ,
		Name:     name,
		Href:     models.StrPtr(href),
		Src:      models.StrPtr(s.resolve(el.AttrOr("src", ""))),
		Platform: s.profile.DisplayName,
	}, true
}

func (s *Scanner) resolve(ref string) string {
	return resolveURL(s.base, ref)
}

func resolveURL(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

func firstAttr(el *goquery.Selection, names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(el.AttrOr(n, "")); v != "" {
			return v
		}
	}
	return ""
}

// Dedupe keeps the first item for each DedupKey.
func Dedupe(items []models.ScannedItem) []models.ScannedItem {
	seen := make(map[string]struct{}, len(items))
	out := items[:0:0]
	for _, it := range items {
		key := it.DedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}

// SortByTimestamp orders items oldest first, keeping discovery order on ties.
func SortByTimestamp(items []models.ScannedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp < items[j].Timestamp
	})
}

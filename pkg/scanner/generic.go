package scanner

import (
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/docufind/models"
	"github.com/dtnitsch/docufind/pkg/platform"
	"github.com/dtnitsch/docufind/pkg/timeparse"
)

// GenericPlatform is the platform name of items found on unsupported pages.
const GenericPlatform = "Web"

// DefaultMaxDepth bounds the ancestor walk in ClosestTimestamp.
const DefaultMaxDepth = 8

const timeElements = "time, .timestamp, .msg-time"

var genericDocExtensions = []string{".pdf", ".docx", ".doc", ".xlsx", ".xls", ".txt"}

// ClosestTimestamp climbs at most maxDepth ancestors of sel (sel included)
// looking for a data-timestamp attribute or a time-like descendant.
func ClosestTimestamp(sel *goquery.Selection, maxDepth int, now time.Time) (int64, bool) {
	n := sel.First()
	for i := 0; i < maxDepth && n.Length() > 0; i++ {
		if v, ok := n.Attr("data-timestamp"); ok {
			if ms, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return ms, true
			}
		}
		if el := n.Find(timeElements).First(); el.Length() > 0 {
			raw := el.AttrOr("datetime", "")
			if raw == "" {
				raw = el.Text()
			}
			if ms, ok := timeparse.Parse(raw, now); ok {
				return ms, true
			}
		}
		n = n.Parent()
	}
	return 0, false
}

// ScanGeneric collects anchors, images and document links from a page no
// profile supports. Timestamps come from ClosestTimestamp, else the scan time.
func ScanGeneric(doc *goquery.Document, opts ...Option) []models.ScannedItem {
	s := New(genericProfile(), opts...)
	now := s.now()
	stamp := func(sel *goquery.Selection) int64 {
		if ms, ok := ClosestTimestamp(sel, DefaultMaxDepth, now); ok {
			return ms
		}
		return now.UnixMilli()
	}

	var docs, images, links []models.ScannedItem
	doc.Find("a[href]").Each(func(i int, a *goquery.Selection) {
		href := s.resolve(a.AttrOr("href", ""))
		if href == "" {
			return
		}
		text := NormalizeText(a.Text())
		ts := stamp(a)
		if text == "" {
			text = href
		}
		links = append(links, models.ScannedItem{
			ID:           fmt.Sprintf("link-%d", i),
			Type:         models.ItemLink,
			Href:         models.StrPtr(href),
			Text:         text,
			Timestamp:    ts,
			MessageIndex: i,
			Platform:     GenericPlatform,
		})

		lower := strings.ToLower(href)
		for _, ext := range genericDocExtensions {
			if strings.Contains(lower, ext) {
				name := NormalizeText(a.Text())
				if name == "" {
					name = lastSegment(href)
				}
				docs = append(docs, models.ScannedItem{
					ID:           fmt.Sprintf("doc-%d", i),
					Type:         models.ItemDocument,
					Name:         name,
					Href:         models.StrPtr(href),
					Timestamp:    ts,
					MessageIndex: i,
					Platform:     GenericPlatform,
				})
				break
			}
		}
	})

	doc.Find("img").Each(func(i int, img *goquery.Selection) {
		src := s.resolve(firstAttr(img, "src", "data-src"))
		if src == "" {
			return
		}
		alt := strings.TrimSpace(img.AttrOr("alt", ""))
		name := alt
		if name == "" {
			name = lastSegment(src)
		}
		images = append(images, models.ScannedItem{
			ID:           fmt.Sprintf("img-%d", i),
			Type:         models.ItemImage,
			Name:         name,
			Src:          models.StrPtr(src),
			Alt:          alt,
			Timestamp:    stamp(img),
			MessageIndex: i,
			Platform:     GenericPlatform,
		})
	})

	all := make([]models.ScannedItem, 0, len(docs)+len(images)+len(links))
	all = append(all, docs...)
	all = append(all, images...)
	all = append(all, links...)
	all = Dedupe(all)
	SortByTimestamp(all)
	return all
}

func genericProfile() platform.Profile {
	return platform.Profile{ID: "generic", DisplayName: GenericPlatform}
}

func lastSegment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return rawURL
	}
	seg := path.Base(u.Path)
	if seg == "/" || seg == "." {
		return rawURL
	}
	return seg
}

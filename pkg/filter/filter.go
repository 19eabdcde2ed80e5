// Package filter computes the visible subset of a scan for a search string,
// a type filter and the "last 7 days" toggle.
package filter

import (
	"sort"
	"strings"
	"time"

	"github.com/dtnitsch/docufind/models"
)

// TypeAll disables type filtering.
const TypeAll = "all"

// RecentWindow is the span of the "last 7 days" filter.
const RecentWindow = 7 * 24 * time.Hour

// Query holds the active filters.
type Query struct {
	Search     string
	Type       string
	RecentOnly bool
}

// Visible returns the items matching every filter in q, newest first.
// Ties keep their input order. items is not modified.
func Visible(items []models.ScannedItem, q Query, now time.Time) []models.ScannedItem {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	cutoff := now.Add(-RecentWindow).UnixMilli()
	typ := strings.ToLower(strings.TrimSpace(q.Type))
	if typ == "" {
		typ = TypeAll
	}

	out := make([]models.ScannedItem, 0, len(items))
	for _, it := range items {
		if !MatchType(it.Type, typ) {
			continue
		}
		if q.RecentOnly && it.Timestamp < cutoff {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(it.SearchText()), search) {
			continue
		}
		out = append(out, it)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

// MatchType reports whether an item of type t is shown under filter. The
// document view also lists media files.
func MatchType(t models.ItemType, filter string) bool {
	if filter == TypeAll || string(t) == filter {
		return true
	}
	return filter == string(models.ItemDocument) && t == models.ItemMedia
}

// Counts are the per-filter totals shown on the filter buttons.
type Counts struct {
	Total    int `json:"total" yaml:"total"`
	Document int `json:"document" yaml:"document"` // documents plus media
	Image    int `json:"image" yaml:"image"`
	Link     int `json:"link" yaml:"link"`
	Media    int `json:"media" yaml:"media"`
}

// Count tallies items by type.
func Count(items []models.ScannedItem) Counts {
	var c Counts
	for _, it := range items {
		c.Total++
		switch it.Type {
		case models.ItemDocument:
			c.Document++
		case models.ItemMedia:
			c.Media++
			c.Document++
		case models.ItemImage:
			c.Image++
		case models.ItemLink:
			c.Link++
		}
	}
	return c
}

// Truncate shortens s to n runes, ending in "..." when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n <= 3 {
		return s
	}
	return string(r[:n-3]) + "..."
}

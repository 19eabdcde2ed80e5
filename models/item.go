package models

import "strings"

// ItemType is the classification of a scanned artifact.
type ItemType string

const (
	ItemDocument ItemType = "document"
	ItemImage    ItemType = "image"
	ItemMedia    ItemType = "media"
	ItemLink     ItemType = "link"
)

// ParseItemType maps a filter/type string to an ItemType.
// "all" and "" are reported as not ok.
func ParseItemType(s string) (ItemType, bool) {
	switch ItemType(strings.ToLower(strings.TrimSpace(s))) {
	case ItemDocument:
		return ItemDocument, true
	case ItemImage:
		return ItemImage, true
	case ItemMedia:
		return ItemMedia, true
	case ItemLink:
		return ItemLink, true
	}
	return "", false
}

// ScannedItem is one document, image, media file, or link found by a scan.
type ScannedItem struct {
	ID           string   `json:"id" yaml:"id"`
	Type         ItemType `json:"type" yaml:"type"`
	Name         string   `json:"name" yaml:"name"`
	Href         *string  `json:"href" yaml:"href"`
	Src          *string  `json:"src" yaml:"src"`
	Text         string   `json:"text,omitempty" yaml:"text,omitempty"` // generic pages only
	Alt          string   `json:"alt,omitempty" yaml:"alt,omitempty"`   // generic pages only
	Timestamp    int64    `json:"timestamp" yaml:"timestamp"`           // epoch millis
	MessageIndex int      `json:"messageIndex" yaml:"message_index"`
	Platform     string   `json:"platform" yaml:"platform"`
}

// DedupKey returns href, else src, else name (else text).
func (it ScannedItem) DedupKey() string {
	if it.Href != nil && *it.Href != "" {
		return *it.Href
	}
	if it.Src != nil && *it.Src != "" {
		return *it.Src
	}
	if it.Name != "" {
		return it.Name
	}
	return it.Text
}

// SearchText returns the field searched by the filter engine:
// name, else text, href, src, alt in that order.
func (it ScannedItem) SearchText() string {
	switch {
	case it.Name != "":
		return it.Name
	case it.Text != "":
		return it.Text
	case it.Href != nil && *it.Href != "":
		return *it.Href
	case it.Src != nil && *it.Src != "":
		return *it.Src
	}
	return it.Alt
}

// Target returns the URL the item points at (href, else src).
func (it ScannedItem) Target() string {
	if it.Href != nil && *it.Href != "" {
		return *it.Href
	}
	if it.Src != nil {
		return *it.Src
	}
	return ""
}

// StrPtr returns nil for an empty string, else a pointer to s.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Package models defines data structures shared by the scanner, the
// summarization pipeline and the CLI.
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Settings are the persisted user options.
type Settings struct {
	BackendURL       string `json:"backendUrl" yaml:"backend_url"`
	GeminiAPIKey     string `json:"geminiApiKey" yaml:"gemini_api_key"`
	OCREnabled       bool   `json:"ocrEnabled" yaml:"ocr_enabled"`
	MaxSummaryLength int    `json:"maxSummaryLength" yaml:"max_summary_length"`
	AutoScan         bool   `json:"autoScan" yaml:"auto_scan"`
	ShowTimestamps   bool   `json:"showTimestamps" yaml:"show_timestamps"`
	GroupByType      bool   `json:"groupByType" yaml:"group_by_type"`
}

// Setting keys as stored.
const (
	KeyBackendURL       = "backendUrl"
	KeyGeminiAPIKey     = "geminiApiKey"
	KeyOCREnabled       = "ocrEnabled"
	KeyMaxSummaryLength = "maxSummaryLength"
	KeyAutoScan         = "autoScan"
	KeyShowTimestamps   = "showTimestamps"
	KeyGroupByType      = "groupByType"
)

// SettingKeys lists every known key in display order.
var SettingKeys = []string{
	KeyBackendURL,
	KeyGeminiAPIKey,
	KeyOCREnabled,
	KeyMaxSummaryLength,
	KeyAutoScan,
	KeyShowTimestamps,
	KeyGroupByType,
}

// DefaultSettings returns the install-time defaults.
func DefaultSettings() Settings {
	return Settings{
		BackendURL:       "http://localhost:8080",
		OCREnabled:       true,
		MaxSummaryLength: 400,
		AutoScan:         true,
		ShowTimestamps:   true,
	}
}

// Get returns the string form of a setting.
func (s Settings) Get(key string) (string, error) {
	switch key {
	case KeyBackendURL:
		return s.BackendURL, nil
	case KeyGeminiAPIKey:
		return s.GeminiAPIKey, nil
	case KeyOCREnabled:
		return strconv.FormatBool(s.OCREnabled), nil
	case KeyMaxSummaryLength:
		return strconv.Itoa(s.MaxSummaryLength), nil
	case KeyAutoScan:
		return strconv.FormatBool(s.AutoScan), nil
	case KeyShowTimestamps:
		return strconv.FormatBool(s.ShowTimestamps), nil
	case KeyGroupByType:
		return strconv.FormatBool(s.GroupByType), nil
	}
	return "", fmt.Errorf("unknown setting %q", key)
}

// Set parses value and assigns it to key. Empty values for string keys and
// unparsable values for typed keys are rejected, except geminiApiKey which
// may be cleared.
func (s *Settings) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case KeyBackendURL:
		if value == "" {
			return fmt.Errorf("%s cannot be empty", key)
		}
		s.BackendURL = value
	case KeyGeminiAPIKey:
		s.GeminiAPIKey = value
	case KeyMaxSummaryLength:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid %s: %q", key, value)
		}
		s.MaxSummaryLength = n
	case KeyOCREnabled, KeyAutoScan, KeyShowTimestamps, KeyGroupByType:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %q", key, value)
		}
		switch key {
		case KeyOCREnabled:
			s.OCREnabled = b
		case KeyAutoScan:
			s.AutoScan = b
		case KeyShowTimestamps:
			s.ShowTimestamps = b
		default:
			s.GroupByType = b
		}
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// Stats are the usage counters shown on the options page.
type Stats struct {
	TotalScans         int64 `json:"totalScans" yaml:"total_scans"`
	TotalItems         int64 `json:"totalItems" yaml:"total_items"`
	SummariesGenerated int64 `json:"summariesGenerated" yaml:"summaries_generated"`
}

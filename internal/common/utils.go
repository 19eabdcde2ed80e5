package common

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/dtnitsch/docufind/models"
)

var (
	markdownLinkPattern = regexp.MustCompile(`^\[.*?\]\((https?://[^\)]+)\)$`)
	urlPattern          = regexp.MustCompile(`^https?://[a-zA-Z0-9][-a-zA-Z0-9.]*[a-zA-Z0-9](:\d+)?(/[^\s]*)?$`)
)

// SanitizeURL performs basic cleanup on URLs to handle common copy-paste issues.
// Removes whitespace, trailing punctuation and markdown link wrappers.
func SanitizeURL(rawURL string) string {
	cleaned := strings.TrimSpace(rawURL)

	// [text](url) -> url
	if matches := markdownLinkPattern.FindStringSubmatch(cleaned); len(matches) > 1 {
		cleaned = matches[1]
	}

	trailingChars := []string{",", ".", ")", "}", "]", "\"", "'", ">", ";"}
	for _, char := range trailingChars {
		cleaned = strings.TrimSuffix(cleaned, char)
	}

	leadingChars := []string{"(", "[", "<", "\"", "'"}
	for _, char := range leadingChars {
		cleaned = strings.TrimPrefix(cleaned, char)
	}

	return strings.TrimSpace(cleaned)
}

// ValidateURL sanitizes rawURL and parses it. Only http(s) URLs with a host
// and no literal spaces are accepted.
func ValidateURL(rawURL string) (*url.URL, error) {
	cleaned := SanitizeURL(rawURL)
	if cleaned == "" {
		return nil, fmt.Errorf("empty URL")
	}
	if strings.Contains(cleaned, " ") {
		return nil, fmt.Errorf("malformed URL %q: spaces must be encoded as %%20", rawURL)
	}
	if !urlPattern.MatchString(cleaned) {
		return nil, fmt.Errorf("malformed URL %q", rawURL)
	}

	parsed, err := url.Parse(cleaned)
	if err != nil {
		return nil, fmt.Errorf("malformed URL %q: %w", rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" || strings.ContainsAny(parsed.Host, "{}[]<>\"'") {
		return nil, fmt.Errorf("malformed host in %q", rawURL)
	}
	return parsed, nil
}

// FilterItemFields reduces each item to the requested JSON fields. An empty
// fieldsStr keeps every field.
func FilterItemFields(items []models.ScannedItem, fieldsStr string) []map[string]interface{} {
	var include map[string]bool
	if fieldsStr != "" {
		include = make(map[string]bool)
		for _, field := range strings.Split(fieldsStr, ",") {
			if field = strings.TrimSpace(field); field != "" {
				include[field] = true
			}
		}
	}

	out := make([]map[string]interface{}, 0, len(items))
	for _, it := range items {
		full := structToMap(it)
		if include == nil {
			out = append(out, full)
			continue
		}
		filtered := make(map[string]interface{})
		for key, value := range full {
			if include[key] {
				filtered[key] = value
			}
		}
		out = append(out, filtered)
	}
	return out
}

// structToMap converts a struct to map[string]interface{} using JSON marshaling.
func structToMap(obj interface{}) map[string]interface{} {
	data, _ := json.Marshal(obj)
	var result map[string]interface{}
	_ = json.Unmarshal(data, &result)
	return result
}

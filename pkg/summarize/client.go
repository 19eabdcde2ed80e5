// Package summarize talks to the /analyze backend, formats its answers, and
// serves summaries through the summary cache.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultMaxTokens is sent as max_tokens when none is configured.
const DefaultMaxTokens = 400

const pingText = "This is a test message to verify the backend is working correctly."

// BackendError is a failed or malformed exchange with the backend. It is
// reported in the result slot of the item that caused it.
type BackendError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *BackendError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BackendError) Unwrap() error { return e.Err }

// Client calls POST <backendUrl>/analyze.
type Client struct {
	http    *resty.Client
	baseURL string
}

// NewClient builds a client for backendURL. A trailing slash is dropped.
func NewClient(backendURL string) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(60*time.Second).
			SetHeader("User-Agent", "docufind/1.0").
			SetHeader("Content-Type", "application/json"),
		baseURL: strings.TrimRight(backendURL, "/"),
	}
}

// BaseURL returns the backend URL without its trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

type analyzeRequest struct {
	Text      string `json:"text"`
	Href      string `json:"href,omitempty"`
	MaxTokens int    `json:"max_tokens"`
}

type analyzeResponse struct {
	Summary json.RawMessage `json:"summary"`
	Error   string          `json:"error"`
	Details string          `json:"details"`
}

// Analyze sends text (and the originating href, if any) for summarization
// and returns the display-formatted summary.
func (c *Client) Analyze(ctx context.Context, text, href string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(analyzeRequest{Text: text, Href: href, MaxTokens: maxTokens}).
		Post(c.baseURL + "/analyze")
	if err != nil {
		return "", &BackendError{Message: "backend request failed", Err: err}
	}

	if resp.IsError() {
		return "", &BackendError{StatusCode: resp.StatusCode(), Message: strings.TrimSpace(resp.String())}
	}

	var out analyzeResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", &BackendError{Message: "malformed backend response", Err: err}
	}

	if hasValue(out.Summary) {
		return Format(out.Summary)
	}
	if out.Error != "" {
		msg := out.Error
		if out.Details != "" {
			msg += ": " + out.Details
		}
		return "", &BackendError{Message: msg}
	}
	return "", &BackendError{Message: "backend response has no summary"}
}

// Ping sends a short test text and reports whether a summary came back.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Analyze(ctx, pingText, "", 100)
	return err
}

func hasValue(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) && !bytes.Equal(trimmed, []byte(`""`))
}

// Structured is the {title, bullets} summary shape.
type Structured struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
}

// String renders "<title>\n\n• b1\n• b2".
func (s Structured) String() string {
	lines := make([]string, len(s.Bullets))
	for i, b := range s.Bullets {
		lines[i] = "• " + b
	}
	return s.Title + "\n\n" + strings.Join(lines, "\n")
}

// Format renders a summary value: an object with title and bullets as
// Structured.String, a string as itself, anything else as its JSON text.
func Format(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", &BackendError{Message: "empty summary"}
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", &BackendError{Message: "malformed summary", Err: err}
		}
		return s, nil
	case '{':
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return "", &BackendError{Message: "malformed summary", Err: err}
		}
		_, hasTitle := probe["title"]
		_, hasBullets := probe["bullets"]
		if hasTitle && hasBullets {
			var st Structured
			if err := json.Unmarshal(trimmed, &st); err != nil {
				return "", &BackendError{Message: "malformed summary", Err: err}
			}
			if st.Title != "" && st.Bullets != nil {
				return st.String(), nil
			}
		}
	}
	return string(trimmed), nil
}

// IsBackendError reports whether err is a *BackendError.
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}

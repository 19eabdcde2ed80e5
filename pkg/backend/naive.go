package backend

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

const (
	maxBullets       = 5
	maxBulletLen     = 240
	maxTitleLen      = 80
	minSentenceLen   = 20
	naiveSentences   = 4
	fallbackTitle    = "Summary (local)"
	defaultTitle     = "Summary"
	maxMessagesInput = 20000
)

var jsonBlock = regexp.MustCompile(`({[\s\S]*})`)

// Summary is the {title, bullets} answer shape.
type Summary struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
}

// SplitSentences splits after '.', '!' or '?' followed by whitespace.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{""}
	}
	runes := []rune(text)
	var out []string
	start := 0
	for i := 1; i < len(runes); i++ {
		if !unicode.IsSpace(runes[i]) || !strings.ContainsRune(".!?", runes[i-1]) {
			continue
		}
		out = append(out, string(runes[start:i]))
		for i < len(runes) && unicode.IsSpace(runes[i]) {
			i++
		}
		start = i
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}

// TruncateLine cuts s to n characters at a word boundary and appends "...".
func TruncateLine(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	cut := string(r[:n])
	if i := strings.LastIndex(cut, " "); i >= 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

// GenerateBullets picks the longest sentences over 20 characters, at most five.
func GenerateBullets(text string) []string {
	if text == "" {
		return []string{}
	}
	var sents []string
	for _, s := range SplitSentences(text) {
		s = strings.TrimSpace(s)
		if len([]rune(s)) > minSentenceLen {
			sents = append(sents, s)
		}
	}
	sort.SliceStable(sents, func(i, j int) bool {
		return len([]rune(sents[i])) > len([]rune(sents[j]))
	})
	if len(sents) > maxBullets {
		sents = sents[:maxBullets]
	}
	bullets := make([]string, len(sents))
	for i, s := range sents {
		bullets[i] = TruncateLine(s, maxBulletLen)
	}
	return bullets
}

// ExtractTitle returns the first line, shortened to 80 characters.
func ExtractTitle(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	first, _, _ := strings.Cut(text, "\n")
	return TruncateLine(first, maxTitleLen)
}

// NaiveSummarize keeps the first four sentences.
func NaiveSummarize(text string) string {
	sents := SplitSentences(text)
	if len(sents) > naiveSentences {
		sents = sents[:naiveSentences]
	}
	return strings.Join(sents, " ")
}

// NaiveSummary is the answer given when no model is configured.
func NaiveSummary(text string) Summary {
	naive := NaiveSummarize(text)
	title := ExtractTitle(naive)
	if title == "" {
		title = fallbackTitle
	}
	return Summary{Title: title, Bullets: GenerateBullets(naive)}
}

// ParseJSONBlock finds a {...} block in model output and decodes it.
func ParseJSONBlock(s string) (Summary, bool) {
	var sum Summary
	if s == "" {
		return sum, false
	}
	if m := jsonBlock.FindString(s); m != "" {
		if err := json.Unmarshal([]byte(m), &sum); err == nil {
			return sum, sum.Title != "" && len(sum.Bullets) > 0
		}
	}
	if err := json.Unmarshal([]byte(s), &sum); err == nil {
		return sum, sum.Title != "" && len(sum.Bullets) > 0
	}
	return Summary{}, false
}

// StructureText derives a summary from free-form model output.
func StructureText(text string) Summary {
	bullets := GenerateBullets(text)
	title := ExtractTitle(text)
	if title == "" {
		if len(bullets) > 0 {
			title = bullets[0]
		} else {
			title = defaultTitle
		}
	}
	return Summary{Title: title, Bullets: bullets}
}

package scanner

import (
	"bufio"
	"regexp"
	"strings"

	"github.com/dtnitsch/docufind/models"
)

// Extension groups in precedence order. The extension must sit right
// before a query separator or at the end of the string.
var (
	documentPattern = regexp.MustCompile(`\.(pdf|docx?|xlsx?|pptx?|txt|csv)(\?|$)`)
	imagePattern    = regexp.MustCompile(`\.(jpe?g|png|gif|webp|svg|bmp)(\?|$)`)
	mediaPattern    = regexp.MustCompile(`\.(mp4|webm|avi|mov|mp3|wav|ogg)(\?|$)`)

	urlPattern = regexp.MustCompile(`https?://\S+`)
)

// Classify returns the item type for an attachment with the given visible
// name and link target. Both are matched as one lowercased string, so an
// extension only counts where it ends the href, or the name when there is
// no href.
func Classify(name, href string) models.ItemType {
	subject := strings.ToLower(strings.TrimSpace(name) + strings.TrimSpace(href))
	switch {
	case documentPattern.MatchString(subject):
		return models.ItemDocument
	case imagePattern.MatchString(subject):
		return models.ItemImage
	case mediaPattern.MatchString(subject):
		return models.ItemMedia
	}
	return models.ItemLink
}

// ExtractLinks returns every http(s) URL in text, in order of appearance.
func ExtractLinks(text string) []string {
	return urlPattern.FindAllString(text, -1)
}

// NormalizeText trims every line and joins the non-empty ones with a space.
func NormalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	sc := bufio.NewScanner(strings.NewReader(input))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}

// Package parser turns a linked page into plain readable text suitable as
// summarization input.
package parser

import (
	"bufio"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// Article is the readable content of a page.
type Article struct {
	URL   string
	Title string
	Text  string
}

type Parser struct{}

// ParseReadable uses go-readability to find the main article content and
// flattens it into one block per line.
func (p *Parser) ParseReadable(rawURL, html string) (*Article, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	readabilityParser := readability.NewParser()
	article, err := readabilityParser.Parse(strings.NewReader(html), parsedURL)
	if err != nil {
		return nil, err
	}

	// goquery over the *clean* HTML content provided by readability
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return nil, err
	}

	var lines []string
	doc.Find("h1,h2,h3,h4,p,li,table,pre").Each(func(i int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "table":
			lines = append(lines, extractTable(s)...)
		case "pre":
			if code := strings.TrimSpace(s.Text()); code != "" {
				lines = append(lines, code)
			}
		default:
			if text := normalizeText(s.Text()); text != "" {
				lines = append(lines, text)
			}
		}
	})

	text := strings.Join(lines, "\n")
	if text == "" {
		text = normalizeText(article.TextContent)
	}

	return &Article{
		URL:   rawURL,
		Title: normalizeText(article.Title),
		Text:  text,
	}, nil
}

// normalizeText cleans up a string by trimming space and removing excess newlines.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}

// extractTable renders each row as cells joined by " | ".
func extractTable(s *goquery.Selection) []string {
	var rows []string
	s.Find("tr").Each(func(i int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th,td").Each(func(j int, cell *goquery.Selection) {
			cells = append(cells, normalizeText(cell.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, strings.Join(cells, " | "))
		}
	})
	return rows
}

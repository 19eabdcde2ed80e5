package summarize

import (
	"context"
	"fmt"

	"github.com/dtnitsch/docufind/pkg/fetcher"
	"github.com/dtnitsch/docufind/pkg/parser"
)

// Pages fetches a linked page and extracts its readable text.
type Pages struct {
	fetcher *fetcher.Fetcher
	parser  *parser.Parser
}

// NewPages returns a PageReader over HTTP.
func NewPages() *Pages {
	return &Pages{fetcher: fetcher.NewFetcher(), parser: &parser.Parser{}}
}

func (p *Pages) ReadableText(ctx context.Context, href string) (string, error) {
	page, err := p.fetcher.GetHtml(ctx, href)
	if err != nil {
		return "", err
	}
	art, err := p.parser.ParseReadable(page.URL.String(), string(page.HTML))
	if err != nil {
		return "", fmt.Errorf("failed to extract readable text: %w", err)
	}
	if art.Title == "" {
		return art.Text, nil
	}
	return art.Title + "\n" + art.Text, nil
}

package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const UserAgent = "docufind/1.0"

type Fetcher struct {
	client *resty.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client: resty.New().
			SetTimeout(30*time.Second).
			SetHeader("User-Agent", UserAgent),
	}
}

// Page is a fetched HTML document along with the URL it was served from,
// which relative links resolve against.
type Page struct {
	URL  *url.URL
	HTML []byte
	Doc  *goquery.Document
}

func (f *Fetcher) GetHtml(ctx context.Context, rawURL string) (*Page, error) {
	body, final, err := f.GetHtmlBytes(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Page{URL: final, HTML: body, Doc: doc}, nil
}

func (f *Fetcher) GetHtmlBytes(ctx context.Context, rawURL string) ([]byte, *url.URL, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, nil, fmt.Errorf("failed to fetch HTML, status code: %d", resp.StatusCode())
	}

	final := resp.RawResponse.Request.URL
	return resp.Body(), final, nil
}

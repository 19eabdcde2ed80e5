package scan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/docufind/internal/common"
	"github.com/dtnitsch/docufind/models"
	"github.com/dtnitsch/docufind/pkg/fetcher"
	"github.com/dtnitsch/docufind/pkg/platform"
	"github.com/dtnitsch/docufind/pkg/scanner"
	"github.com/dtnitsch/docufind/pkg/storage"
	"github.com/urfave/cli/v2"
)

// ErrUnsupported is returned for hosts no profile matches when a generic
// scan was not requested.
var ErrUnsupported = errors.New("platform not supported")

// Target is a page ready to scan.
type Target struct {
	Doc    *goquery.Document
	Base   *url.URL
	Host   string
	Source string
}

// LoadTarget reads the page named by --file or --url. --host overrides the
// hostname used for profile lookup; --base-url sets where relative links of
// a saved file point.
func LoadTarget(ctx context.Context, c *cli.Context) (*Target, error) {
	file, rawURL := c.String("file"), c.String("url")
	switch {
	case file != "" && rawURL != "":
		return nil, fmt.Errorf("cannot use both --file and --url")
	case file == "" && rawURL == "":
		return nil, fmt.Errorf("no page provided: use --file or --url")
	}

	var base *url.URL
	if b := c.String("base-url"); b != "" {
		parsed, err := common.ValidateURL(b)
		if err != nil {
			return nil, fmt.Errorf("invalid --base-url: %w", err)
		}
		base = parsed
	}

	target := &Target{Host: strings.ToLower(c.String("host"))}
	if file != "" {
		s := &storage.Storage{}
		data, err := s.ReadFile(file)
		if err != nil {
			return nil, err
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		target.Doc, target.Base, target.Source = doc, base, file
	} else {
		u, err := common.ValidateURL(rawURL)
		if err != nil {
			return nil, err
		}
		page, err := fetcher.NewFetcher().GetHtml(ctx, u.String())
		if err != nil {
			return nil, err
		}
		target.Doc, target.Base, target.Source = page.Doc, page.URL, page.URL.String()
		if base != nil {
			target.Base = base
		}
	}

	if target.Host == "" && target.Base != nil {
		target.Host = target.Base.Hostname()
	}
	return target, nil
}

// Plan says how a page is scanned: with a platform profile or generically.
type Plan struct {
	Profile platform.Profile
	Generic bool
}

// ResolvePlan picks the profile for host. platformID overrides the host
// lookup and generic skips it.
func ResolvePlan(reg *platform.Registry, host, platformID string, generic bool) (Plan, error) {
	if generic {
		return Plan{Generic: true}, nil
	}
	if platformID != "" {
		p, ok := reg.ByID(platformID)
		if !ok {
			return Plan{}, fmt.Errorf("unknown platform: %s (see 'docufind platforms')", platformID)
		}
		return Plan{Profile: p}, nil
	}
	p, ok := reg.Resolve(host)
	if !ok {
		if host == "" {
			return Plan{}, fmt.Errorf("%w: no host known, use --host, --platform or --generic", ErrUnsupported)
		}
		return Plan{}, fmt.Errorf("%w: %s (use --generic to scan it as a plain page)", ErrUnsupported, host)
	}
	return Plan{Profile: p}, nil
}

// PlatformName is the name items of this plan carry.
func (p Plan) PlatformName() string {
	if p.Generic {
		return scanner.GenericPlatform
	}
	return p.Profile.DisplayName
}

// Scan runs the plan over doc.
func (p Plan) Scan(doc *goquery.Document, opts ...scanner.Option) ([]models.ScannedItem, error) {
	if p.Generic {
		return scanner.ScanGeneric(doc, opts...), nil
	}
	return scanner.New(p.Profile, opts...).Scan(doc)
}

// ChatTitle returns the open conversation's name, empty for generic pages.
func (p Plan) ChatTitle(doc *goquery.Document) string {
	if p.Generic {
		return ""
	}
	title, _ := platform.ActiveChatTitle(doc, p.Profile)
	return title
}

package watch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultPollInterval is how often a BrowserSource samples the live DOM.
const DefaultPollInterval = time.Second

// BrowserConfig configures a BrowserSource.
type BrowserConfig struct {
	URL string
	// ControlURL connects to a running Chrome. Empty launches a local one.
	ControlURL   string
	Headless     bool
	PollInterval time.Duration
	Logger       *slog.Logger
}

// BrowserSource is a live page in Chrome, driven through the DevTools
// protocol. Changes are detected by hashing the serialized DOM.
type BrowserSource struct {
	cfg     BrowserConfig
	browser *rod.Browser
	page    *rod.Page
	lnch    *launcher.Launcher
}

// NewBrowserSource opens cfg.URL and waits for it to load.
func NewBrowserSource(ctx context.Context, cfg BrowserConfig) (*BrowserSource, error) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	bs := &BrowserSource{cfg: cfg}

	wsURL := cfg.ControlURL
	if wsURL == "" {
		l := launcher.New().Headless(cfg.Headless)
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		bs.lnch = l
		cfg.Logger.Info("browser: launched local chrome", "url", wsURL)
	}

	bs.browser = rod.New().ControlURL(wsURL)
	if err := bs.browser.Connect(); err != nil {
		bs.cleanup()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	page, err := bs.browser.Page(proto.TargetCreateTarget{URL: cfg.URL})
	if err != nil {
		bs.cleanup()
		return nil, fmt.Errorf("browser: open %s: %w", cfg.URL, err)
	}
	bs.page = page

	navCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		cfg.Logger.Warn("browser: wait load timeout", "url", cfg.URL, "error", err)
	}
	return bs, nil
}

func (b *BrowserSource) Watch(ctx context.Context, changed func()) error {
	ticker := time.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()

	var last [32]byte
	if html, err := b.currentHTML(ctx); err == nil {
		last = sha256.Sum256([]byte(html))
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			html, err := b.currentHTML(ctx)
			if err != nil {
				b.cfg.Logger.Warn("browser: read DOM failed", "error", err)
				continue
			}
			sum := sha256.Sum256([]byte(html))
			if sum != last {
				last = sum
				changed()
			}
		}
	}
}

func (b *BrowserSource) currentHTML(ctx context.Context) (string, error) {
	return b.page.Context(ctx).HTML()
}

func (b *BrowserSource) Snapshot(ctx context.Context) (*Page, error) {
	html, err := b.currentHTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("browser: read DOM: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page := &Page{Doc: doc}
	if info, err := b.page.Info(); err == nil {
		if u, err := url.Parse(info.URL); err == nil {
			page.Base = u
			page.Host = u.Hostname()
		}
	}
	return page, nil
}

func (b *BrowserSource) Close() error {
	b.cleanup()
	return nil
}

func (b *BrowserSource) cleanup() {
	if b.page != nil {
		_ = b.page.Close()
	}
	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
	}
}

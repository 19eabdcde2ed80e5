// Package watch rescans a page whenever it changes. Change notifications
// are debounced and overlapping scans are skipped.
package watch

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/docufind/models"
	"github.com/dtnitsch/docufind/pkg/scanner"
)

// Page is a snapshot of the watched page.
type Page struct {
	Doc  *goquery.Document
	Base *url.URL
	Host string
}

// Source is a page that can change.
type Source interface {
	// Watch calls changed on every change until ctx is done.
	Watch(ctx context.Context, changed func()) error
	// Snapshot returns the current page.
	Snapshot(ctx context.Context) (*Page, error)
	Close() error
}

// ScanFunc scans one snapshot.
type ScanFunc func(page *Page) ([]models.ScannedItem, error)

// ResultFunc receives the outcome of every completed scan.
type ResultFunc func(items []models.ScannedItem, err error)

// Runner drives scans of a Source.
type Runner struct {
	source    Source
	scan      ScanFunc
	onResult  ResultFunc
	window    time.Duration
	autoScan  bool
	guard     scanner.Guard
	debouncer *Debouncer
	logger    *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithWindow sets the debounce window.
func WithWindow(d time.Duration) Option {
	return func(r *Runner) { r.window = d }
}

// WithAutoScan mirrors the autoScan setting. When false only the initial
// scan runs.
func WithAutoScan(enabled bool) Option {
	return func(r *Runner) { r.autoScan = enabled }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a Runner.
func NewRunner(source Source, scan ScanFunc, onResult ResultFunc, opts ...Option) *Runner {
	r := &Runner{
		source:   source,
		scan:     scan,
		onResult: onResult,
		window:   DefaultWindow,
		autoScan: true,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run scans once, then rescans after each debounced change until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	r.ScanNow(ctx)
	if !r.autoScan {
		r.logger.Info("auto scan disabled, not watching for changes")
		return nil
	}

	r.debouncer = NewDebouncer(r.window, func() { r.ScanNow(ctx) })
	defer r.debouncer.Stop()

	r.logger.Info("Watching for changes", "debounce", r.window)
	err := r.source.Watch(ctx, r.debouncer.Trigger)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// ScanNow scans immediately unless a scan is already running, and reports
// whether it ran.
func (r *Runner) ScanNow(ctx context.Context) bool {
	ran := r.guard.TryRun(func() {
		page, err := r.source.Snapshot(ctx)
		if err != nil {
			r.logger.Warn("snapshot failed", "error", err)
			r.onResult(nil, err)
			return
		}
		items, err := r.scan(page)
		r.onResult(items, err)
	})
	if !ran {
		r.logger.Debug("scan in progress, skipping trigger")
	}
	return ran
}

package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dtnitsch/docufind/models"
	"github.com/dtnitsch/docufind/pkg/cache"
)

// StatSummariesGenerated is the counter bumped after each live summary.
const StatSummariesGenerated = "summariesGenerated"

// Analyzer produces a display-ready summary for text.
type Analyzer interface {
	Analyze(ctx context.Context, text, href string, maxTokens int) (string, error)
}

// PageReader returns the readable text of a linked page.
type PageReader interface {
	ReadableText(ctx context.Context, href string) (string, error)
}

// StatsRecorder counts generated summaries.
type StatsRecorder interface {
	IncrementStat(name string, delta int64) error
}

// Service answers summary requests, consulting the cache before the backend.
type Service struct {
	analyzer  Analyzer
	cache     cache.Store
	pages     PageReader
	stats     StatsRecorder
	maxTokens int
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPageReader makes link requests send the linked page's text instead of
// a placeholder prompt.
func WithPageReader(r PageReader) Option {
	return func(s *Service) { s.pages = r }
}

// WithStats records generated summaries.
func WithStats(r StatsRecorder) Option {
	return func(s *Service) { s.stats = r }
}

// WithMaxTokens sets max_tokens for backend calls.
func WithMaxTokens(n int) Option {
	return func(s *Service) { s.maxTokens = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service. A nil store disables caching.
func NewService(analyzer Analyzer, store cache.Store, opts ...Option) *Service {
	s := &Service{
		analyzer:  analyzer,
		cache:     store,
		maxTokens: DefaultMaxTokens,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize answers req. Failures are reported in Result.Error.
func (s *Service) Summarize(ctx context.Context, req models.SummaryRequest) models.SummaryResult {
	result := models.SummaryResult{ItemID: req.ItemID}
	key := cache.Key(cache.Request{Href: req.Href, Text: req.Text})

	if s.cache != nil {
		summary, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("summary cache lookup failed", "item_id", req.ItemID, "error", err)
		} else if ok {
			s.logger.Debug("summary cache hit", "item_id", req.ItemID)
			result.Summary = summary
			result.Cached = true
			return result
		}
	}

	summary, err := s.analyzer.Analyze(ctx, s.content(ctx, req), req.Href, s.maxTokens)
	if err != nil {
		s.logger.Error("summarization failed", "item_id", req.ItemID, "error", err)
		result.Error = err.Error()
		return result
	}
	result.Summary = summary

	if s.cache != nil {
		if err := s.cache.Put(ctx, key, summary); err != nil {
			s.logger.Warn("failed to cache summary", "item_id", req.ItemID, "error", err)
		}
	}
	if s.stats != nil {
		if err := s.stats.IncrementStat(StatSummariesGenerated, 1); err != nil {
			s.logger.Warn("failed to record stats", "error", err)
		}
	}
	return result
}

// content picks what is sent to the backend: the request text, else the
// linked page, else a description of the file.
func (s *Service) content(ctx context.Context, req models.SummaryRequest) string {
	if req.Text != "" {
		return req.Text
	}
	if req.Href != "" {
		if s.pages != nil && req.Source == models.SourceLink {
			text, err := s.pages.ReadableText(ctx, req.Href)
			if err == nil && text != "" {
				return text
			}
			s.logger.Warn("falling back to URL prompt", "href", req.Href, "error", err)
		}
		return fmt.Sprintf("Content from URL: %s\nPlease analyze this URL and provide a summary.", req.Href)
	}
	name := req.Name
	if name == "" {
		name = "Unknown file"
	}
	return "File: " + name
}

// SummarizeAll answers reqs with a pool of workers. Results keep the order
// of reqs.
func (s *Service) SummarizeAll(ctx context.Context, reqs []models.SummaryRequest, workers int) []models.SummaryResult {
	if workers < 1 {
		workers = 1
	}

	type job struct {
		index int
		req   models.SummaryRequest
	}
	type done struct {
		index  int
		result models.SummaryResult
	}

	s.logger.Info("Starting summarization", "request_count", len(reqs), "workers", workers)
	var wg sync.WaitGroup
	jobs := make(chan job, len(reqs))
	results := make(chan done, len(reqs))

	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range jobs {
				s.logger.Debug("Worker summarizing", "worker_id", id, "item_id", j.req.ItemID)
				results <- done{index: j.index, result: s.Summarize(ctx, j.req)}
			}
		}(w)
	}

	for i, req := range reqs {
		jobs <- job{index: i, req: req}
	}
	close(jobs)

	wg.Wait()
	close(results)
	s.logger.Info("All summarization workers finished")

	out := make([]models.SummaryResult, len(reqs))
	for d := range results {
		out[d.index] = d.result
	}
	return out
}

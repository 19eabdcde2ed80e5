package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dtnitsch/docufind/internal/common"
	"github.com/dtnitsch/docufind/internal/scan"
	"github.com/dtnitsch/docufind/models"
	"github.com/dtnitsch/docufind/pkg/cache"
	"github.com/dtnitsch/docufind/pkg/caching"
	"github.com/dtnitsch/docufind/pkg/db"
	"github.com/dtnitsch/docufind/pkg/relay"
	"github.com/dtnitsch/docufind/pkg/scanner"
	summarizepkg "github.com/dtnitsch/docufind/pkg/summarize"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

// FormatText prints summaries as plain text.
const FormatText = "text"

func SummarizeAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	cfg, err := common.ConfigFromContext(c)
	if err != nil {
		return err
	}

	database, err := db.Open()
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(2)
	}
	defer database.Close()

	settings, err := database.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	reqs, err := buildRequests(c, cfg)
	if err != nil {
		return err
	}

	store, err := OpenStore(database, c.String("cache-dir"), cfg.CacheDir)
	if err != nil {
		return err
	}

	backendURL := settings.BackendURL
	if c.IsSet("backend") {
		backendURL = c.String("backend")
	}
	opts := []summarizepkg.Option{
		summarizepkg.WithStats(database),
		summarizepkg.WithMaxTokens(settings.MaxSummaryLength),
		summarizepkg.WithLogger(logger),
	}
	if c.Bool("fetch-content") {
		opts = append(opts, summarizepkg.WithPageReader(summarizepkg.NewPages()))
	}
	svc := summarizepkg.NewService(summarizepkg.NewClient(backendURL), store, opts...)
	logger.Info("Summarizing", "requests", len(reqs), "backend", backendURL)

	var results []models.SummaryResult
	if len(reqs) == 1 {
		res, err := SummarizeViaRelay(c.Context, svc, reqs[0], c.Duration("timeout"), logger)
		if err != nil {
			return err
		}
		results = []models.SummaryResult{res}
	} else {
		ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
		defer cancel()
		results = svc.SummarizeAll(ctx, reqs, cfg.WorkerCount(c.Int("workers")))
	}

	format := c.String("format")
	if format == FormatText || format == "" {
		PrintResults(os.Stdout, results)
	} else if err := common.Render(os.Stdout, format, results); err != nil {
		return err
	}

	for _, r := range results {
		if r.Error != "" {
			return cli.Exit("", 1)
		}
	}
	return nil
}

// SummarizeViaRelay sends req over a relay bus and waits for the correlated
// result, the way a sidebar click reaches the background worker.
func SummarizeViaRelay(ctx context.Context, svc *summarizepkg.Service, req models.SummaryRequest, timeout time.Duration, logger *slog.Logger) (models.SummaryResult, error) {
	bus := relay.NewBus(logger)
	bus.Register(relay.KindSummarize, func(ctx context.Context, env relay.Envelope) relay.Envelope {
		r := env.Payload.(models.SummaryRequest)
		return relay.Envelope{Kind: relay.KindSummaryResult, ItemID: r.ItemID, Payload: svc.Summarize(ctx, r)}
	})

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := bus.Send(ctx, relay.Envelope{Kind: relay.KindSummarize, ItemID: req.ItemID, Payload: req}); err != nil {
		return models.SummaryResult{}, err
	}
	env, err := bus.Await(ctx, req.ItemID)
	if err != nil {
		return models.SummaryResult{}, fmt.Errorf("no summary for %s: %w", req.ItemID, err)
	}
	return env.Payload.(models.SummaryResult), nil
}

// OpenStore returns a file cache when a directory is configured, else the
// database cache.
func OpenStore(database *db.DB, flagDir, configDir string) (cache.Store, error) {
	dir := flagDir
	if dir == "" {
		dir = configDir
	}
	if dir == "" {
		return database.Summaries(), nil
	}
	return caching.NewFileStore(dir)
}

func buildRequests(c *cli.Context, cfg *common.Config) ([]models.SummaryRequest, error) {
	var reqs []models.SummaryRequest

	if href := c.String("href"); href != "" {
		u, err := common.ValidateURL(href)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, RequestForHref(u.String()))
	}
	if text := c.String("text"); text != "" {
		reqs = append(reqs, models.SummaryRequest{Source: models.SourceText, Text: text, ItemID: uuid.NewString()})
	}
	if c.String("file") != "" || c.String("url") != "" {
		fromPage, err := requestsFromPage(c, cfg)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, fromPage...)
	}

	if len(reqs) == 0 {
		return nil, fmt.Errorf("nothing to summarize: use --href, --text, or --file/--url with --item or --all")
	}
	return reqs, nil
}

// RequestForHref builds a request for a bare link, classified like a
// scanned attachment.
func RequestForHref(href string) models.SummaryRequest {
	item := models.ScannedItem{
		ID:   uuid.NewString(),
		Type: scanner.Classify("", href),
		Href: models.StrPtr(href),
	}
	if i := strings.LastIndex(href, "/"); i >= 0 && i < len(href)-1 {
		item.Name = href[i+1:]
	}
	return models.SummaryRequestFor(item)
}

func requestsFromPage(c *cli.Context, cfg *common.Config) ([]models.SummaryRequest, error) {
	ids := c.StringSlice("item")
	all := c.Bool("all")
	if len(ids) == 0 && !all {
		return nil, fmt.Errorf("select items with --item ID (repeatable) or --all")
	}

	target, err := scan.LoadTarget(c.Context, c)
	if err != nil {
		return nil, err
	}
	plan, err := scan.ResolvePlan(cfg.Registry(), target.Host, c.String("platform"), c.Bool("generic"))
	if err != nil {
		return nil, err
	}
	items, err := plan.Scan(target.Doc, scanner.WithBaseURL(target.Base))
	if err != nil {
		return nil, err
	}
	return SelectRequests(items, ids, all)
}

// SelectRequests builds requests for the items with the given ids, or for
// every item when all is set.
func SelectRequests(items []models.ScannedItem, ids []string, all bool) ([]models.SummaryRequest, error) {
	if all {
		reqs := make([]models.SummaryRequest, len(items))
		for i, it := range items {
			reqs[i] = models.SummaryRequestFor(it)
		}
		return reqs, nil
	}

	byID := make(map[string]models.ScannedItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	reqs := make([]models.SummaryRequest, 0, len(ids))
	for _, id := range ids {
		it, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("no item with id %s (see 'docufind scan')", id)
		}
		reqs = append(reqs, models.SummaryRequestFor(it))
	}
	return reqs, nil
}

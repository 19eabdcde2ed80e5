package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dtnitsch/docufind/internal/cachecmd"
	"github.com/dtnitsch/docufind/internal/common"
	"github.com/dtnitsch/docufind/internal/settings"
	"github.com/dtnitsch/docufind/internal/summarize"
	"github.com/dtnitsch/docufind/models"
	"github.com/dtnitsch/docufind/pkg/cache"
	"github.com/dtnitsch/docufind/pkg/db"
	"github.com/dtnitsch/docufind/pkg/storage"
	"github.com/urfave/cli/v2"
)

// Bundle is the export document.
type Bundle struct {
	Settings   models.Settings   `json:"settings"`
	Statistics models.Stats      `json:"statistics"`
	Cache      map[string]string `json:"cache"`
	ExportDate string            `json:"exportDate"`
}

// Build assembles a Bundle. The API key is masked unless includeSecrets.
func Build(ctx context.Context, s models.Settings, stats models.Stats, store cache.Store, includeSecrets bool, now time.Time) (*Bundle, error) {
	entries, err := cachecmd.Dump(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}
	if !includeSecrets {
		s = settings.Masked(s)
	}
	return &Bundle{
		Settings:   s,
		Statistics: stats,
		Cache:      entries,
		ExportDate: now.UTC().Format(time.RFC3339),
	}, nil
}

func ExportAction(c *cli.Context) error {
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

	s, err := database.LoadSettings()
	if err != nil {
		return err
	}
	stats, err := database.GetStats()
	if err != nil {
		return err
	}
	store, err := summarize.OpenStore(database, c.String("cache-dir"), cfg.CacheDir)
	if err != nil {
		return err
	}

	bundle, err := Build(c.Context, s, stats, store, c.Bool("include-secrets"), time.Now())
	if err != nil {
		return err
	}

	out := c.String("out")
	if out == "" {
		return common.Render(os.Stdout, common.FormatJSON, bundle)
	}

	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal export: %w", err)
	}
	st := &storage.Storage{}
	if err := st.SaveFile(out, data); err != nil {
		return err
	}
	info, err := st.GetFileStats(out)
	if err != nil {
		return err
	}
	logger.Info("Export written", "path", out, "bytes", info.SizeBytes, "cache_entries", len(bundle.Cache))
	fmt.Printf("Exported to %s\n", out)
	return nil
}

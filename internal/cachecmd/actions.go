package cachecmd

import (
	"context"
	"fmt"
	"os"

	"github.com/dtnitsch/docufind/internal/common"
	"github.com/dtnitsch/docufind/internal/summarize"
	"github.com/dtnitsch/docufind/pkg/cache"
	"github.com/dtnitsch/docufind/pkg/db"
	"github.com/urfave/cli/v2"
)

func openStore(c *cli.Context) (cache.Store, *db.DB, error) {
	cfg, err := common.ConfigFromContext(c)
	if err != nil {
		return nil, nil, err
	}
	database, err := db.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	store, err := summarize.OpenStore(database, c.String("cache-dir"), cfg.CacheDir)
	if err != nil {
		database.Close()
		return nil, nil, err
	}
	return store, database, nil
}

// GetAction prints the cached summary for --href and/or --text.
func GetAction(c *cli.Context) error {
	if c.String("href") == "" && c.String("text") == "" {
		return fmt.Errorf("use --href and/or --text to identify the entry")
	}
	store, database, err := openStore(c)
	if err != nil {
		return err
	}
	defer database.Close()

	key := cache.Key(cache.Request{Href: c.String("href"), Text: c.String("text")})
	summary, ok, err := store.Get(c.Context, key)
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}
	if !ok {
		return cli.Exit("not cached", 1)
	}
	fmt.Println(summary)
	return nil
}

func ClearAction(c *cli.Context) error {
	store, database, err := openStore(c)
	if err != nil {
		return err
	}
	defer database.Close()

	n, _ := store.Len(c.Context)
	if err := store.Clear(c.Context); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Printf("Cleared %d cached summaries\n", n)
	return nil
}

// CacheStats is the output of `cache stats`.
type CacheStats struct {
	Entries int `json:"entries" yaml:"entries"`
}

func StatsAction(c *cli.Context) error {
	store, database, err := openStore(c)
	if err != nil {
		return err
	}
	defer database.Close()

	n, err := store.Len(c.Context)
	if err != nil {
		return fmt.Errorf("failed to count cache entries: %w", err)
	}
	if c.String("format") == common.FormatTable {
		fmt.Printf("Cached summaries: %d\n", n)
		return nil
	}
	return common.Render(os.Stdout, c.String("format"), CacheStats{Entries: n})
}

// Dump returns every entry of store when it can list them.
func Dump(ctx context.Context, store cache.Store) (map[string]string, error) {
	entries, ok := store.(cache.Entries)
	if !ok {
		return map[string]string{}, nil
	}
	return entries.All(ctx)
}

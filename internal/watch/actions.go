package watch

import (
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dtnitsch/docufind/internal/common"
	"github.com/dtnitsch/docufind/internal/scan"
	"github.com/dtnitsch/docufind/models"
	"github.com/dtnitsch/docufind/pkg/db"
	"github.com/dtnitsch/docufind/pkg/filter"
	"github.com/dtnitsch/docufind/pkg/scanner"
	watchpkg "github.com/dtnitsch/docufind/pkg/watch"
	"github.com/urfave/cli/v2"
)

// WatchAction scans a page, then rescans it whenever it changes.
func WatchAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	cfg, err := common.ConfigFromContext(c)
	if err != nil {
		return err
	}
	query, err := scan.QueryFromFlags(c)
	if err != nil {
		return err
	}
	window := cfg.DebounceWindow()
	if c.IsSet("debounce") {
		window = c.Duration("debounce")
	}
	format := c.String("format")

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

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var source watchpkg.Source
	switch file, rawURL := c.String("file"), c.String("url"); {
	case file != "" && rawURL != "":
		return fmt.Errorf("cannot use both --file and --url")
	case file != "":
		base, err := baseURL(c)
		if err != nil {
			return err
		}
		source, err = watchpkg.NewFileSource(file, base, c.String("host"))
		if err != nil {
			return err
		}
	case rawURL != "":
		u, err := common.ValidateURL(rawURL)
		if err != nil {
			return err
		}
		source, err = watchpkg.NewBrowserSource(ctx, watchpkg.BrowserConfig{
			URL:          u.String(),
			ControlURL:   c.String("browser-url"),
			Headless:     !c.Bool("show-browser"),
			PollInterval: c.Duration("poll"),
			Logger:       logger,
		})
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("no page provided: use --file or --url")
	}
	defer source.Close()

	reg := cfg.Registry()
	hostOverride := strings.ToLower(c.String("host"))

	// Written by scanFn and read by onResult of the same scan.
	var plan scan.Plan
	var chatTitle string

	scanFn := func(page *watchpkg.Page) ([]models.ScannedItem, error) {
		host := page.Host
		if hostOverride != "" {
			host = hostOverride
		}
		p, err := scan.ResolvePlan(reg, host, c.String("platform"), c.Bool("generic"))
		if err != nil {
			return nil, err
		}
		plan, chatTitle = p, p.ChatTitle(page.Doc)
		return p.Scan(page.Doc, scanner.WithBaseURL(page.Base), scanner.WithLogger(logger))
	}

	onResult := func(items []models.ScannedItem, err error) {
		if err != nil {
			logger.Error("scan failed", "error", err)
			return
		}
		if err := database.RecordScanStats(len(items)); err != nil {
			logger.Warn("failed to update statistics", "error", err)
		}

		visible := filter.Visible(items, query, time.Now())
		logger.Info("Scan complete", "items", len(items), "visible", len(visible))

		out := scan.Output{
			Source:    c.String("file") + c.String("url"),
			Platform:  plan.PlatformName(),
			ChatTitle: chatTitle,
			Counts:    filter.Count(items),
			Items:     common.FilterItemFields(visible, c.String("fields")),
		}

		switch format {
		case common.FormatTable:
			fmt.Printf("\n== %s ==\n", time.Now().Format("15:04:05"))
			scan.PrintTable(os.Stdout, visible, out.Counts, settings)
		case common.FormatYAML:
			fmt.Println("---")
			fallthrough
		default:
			if err := common.Render(os.Stdout, format, out); err != nil {
				logger.Error("failed to write output", "error", err)
			}
		}
	}

	runner := watchpkg.NewRunner(source, scanFn, onResult,
		watchpkg.WithWindow(window),
		watchpkg.WithAutoScan(settings.AutoScan),
		watchpkg.WithLogger(logger),
	)
	return runner.Run(ctx)
}

func baseURL(c *cli.Context) (*url.URL, error) {
	b := c.String("base-url")
	if b == "" {
		return nil, nil
	}
	u, err := common.ValidateURL(b)
	if err != nil {
		return nil, fmt.Errorf("invalid --base-url: %w", err)
	}
	return u, nil
}

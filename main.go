package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dtnitsch/docufind/internal/cachecmd"
	"github.com/dtnitsch/docufind/internal/common"
	"github.com/dtnitsch/docufind/internal/db"
	"github.com/dtnitsch/docufind/internal/export"
	"github.com/dtnitsch/docufind/internal/ocr"
	"github.com/dtnitsch/docufind/internal/scan"
	"github.com/dtnitsch/docufind/internal/serve"
	"github.com/dtnitsch/docufind/internal/settings"
	"github.com/dtnitsch/docufind/internal/summarize"
	"github.com/dtnitsch/docufind/internal/watch"
	"github.com/dtnitsch/docufind/pkg/help"
	ocrpkg "github.com/dtnitsch/docufind/pkg/ocr"
	watchpkg "github.com/dtnitsch/docufind/pkg/watch"
	"github.com/urfave/cli/v2"
)

// pageFlags select and interpret the page to scan.
func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "saved HTML page"},
		&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Usage: "page URL"},
		&cli.StringFlag{Name: "host", Usage: "hostname used to pick the platform (default: from --url or --base-url)"},
		&cli.StringFlag{Name: "base-url", Usage: "URL relative links in --file resolve against"},
		&cli.StringFlag{Name: "platform", Aliases: []string{"p"}, Usage: "platform id, overrides host lookup (see 'docufind platforms')"},
		&cli.BoolFlag{Name: "generic", Aliases: []string{"g"}, Usage: "scan as a plain web page"},
	}
}

// filterFlags narrow and shape scan output.
func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "case-insensitive substring of the item name"},
		&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Value: "all", Usage: "all, document, image, media, or link"},
		&cli.BoolFlag{Name: "recent", Usage: "only items from the last 7 days"},
		&cli.StringFlag{Name: "fields", Usage: "comma-separated item fields to output (json/yaml)"},
		formatFlag(common.FormatJSON),
	}
}

func formatFlag(def string) cli.Flag {
	return &cli.StringFlag{Name: "format", Value: def, Usage: "output format: json, yaml, or table"}
}

func cacheDirFlag() cli.Flag {
	return &cli.StringFlag{Name: "cache-dir", EnvVars: []string{"DOCUFIND_CACHE_DIR"}, Usage: "file cache directory (default: SQLite database)"}
}

func main() {
	app := &cli.App{
		Name:  "docufind",
		Usage: "Find documents, images and links in chat pages and summarize them",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log debug output"},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, EnvVars: []string{"DOCUFIND_CONFIG"}, Usage: "YAML file with custom profiles and defaults"},
		},
		Commands: []*cli.Command{
			{
				Name:   "scan",
				Usage:  "Scan a chat page for documents, images and links",
				Flags:  append(append(pageFlags(), filterFlags()...), &cli.BoolFlag{Name: "save", Usage: "record the scan in history"}),
				Action: scan.ScanAction,
			},
			{
				Name:  "watch",
				Usage: "Scan a page and rescan it whenever it changes",
				Flags: append(append(pageFlags(), filterFlags()...),
					&cli.DurationFlag{Name: "debounce", Value: watchpkg.DefaultWindow, Usage: "quiet period before a rescan"},
					&cli.StringFlag{Name: "browser-url", EnvVars: []string{"DOCUFIND_BROWSER_URL"}, Usage: "DevTools URL of a running Chrome (default: launch one)"},
					&cli.BoolFlag{Name: "show-browser", Usage: "launch Chrome with a window"},
					&cli.DurationFlag{Name: "poll", Value: watchpkg.DefaultPollInterval, Usage: "live page change check interval"},
				),
				Action: watch.WatchAction,
			},
			{
				Name:  "summarize",
				Usage: "Summarize a link, a text or scanned items through the backend",
				Flags: append(pageFlags(),
					&cli.StringFlag{Name: "href", Usage: "link to summarize"},
					&cli.StringFlag{Name: "text", Usage: "text to summarize"},
					&cli.StringSliceFlag{Name: "item", Aliases: []string{"i"}, Usage: "scanned item id (repeatable)"},
					&cli.BoolFlag{Name: "all", Usage: "summarize every scanned item"},
					&cli.BoolFlag{Name: "fetch-content", Usage: "send the readable text of linked pages instead of the URL"},
					&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "concurrent backend requests (default 4)"},
					&cli.StringFlag{Name: "backend", Usage: "backend URL, overrides the backendUrl setting"},
					&cli.DurationFlag{Name: "timeout", Value: 2 * time.Minute, Usage: "give up waiting after this long"},
					cacheDirFlag(),
					formatFlag(summarize.FormatText),
				),
				Action: summarize.SummarizeAction,
			},
			{
				Name:  "ocr",
				Usage: "Extract text from an image",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "src", Usage: "image path, http(s) URL or data: URL", Required: true},
					&cli.StringFlag{Name: "lang", Value: ocrpkg.DefaultLang, Usage: "tesseract language"},
					&cli.StringFlag{Name: "item-id", Usage: "correlation id (default: random)"},
					&cli.StringFlag{Name: "tesseract", Value: "tesseract", EnvVars: []string{"TESSERACT_BIN"}, Usage: "tesseract binary"},
					&cli.DurationFlag{Name: "timeout", Value: time.Minute},
					formatFlag("text"),
				},
				Action: ocr.OCRAction,
			},
			{
				Name:  "cache",
				Usage: "Inspect the summary cache",
				Subcommands: []*cli.Command{
					{
						Name:  "get",
						Usage: "Print the cached summary of a link or text",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "href"},
							&cli.StringFlag{Name: "text"},
							cacheDirFlag(),
						},
						Action: cachecmd.GetAction,
					},
					{Name: "clear", Usage: "Remove every cached summary", Flags: []cli.Flag{cacheDirFlag()}, Action: cachecmd.ClearAction},
					{Name: "stats", Usage: "Count cached summaries", Flags: []cli.Flag{cacheDirFlag(), formatFlag(common.FormatTable)}, Action: cachecmd.StatsAction},
				},
			},
			{
				Name:  "settings",
				Usage: "Show or change settings",
				Subcommands: []*cli.Command{
					{Name: "show", Flags: []cli.Flag{formatFlag(common.FormatTable)}, Action: settings.ShowAction},
					{Name: "set", Usage: "settings set KEY VALUE", ArgsUsage: "KEY VALUE", Action: settings.SetAction},
					{Name: "reset", Usage: "Restore defaults", Action: settings.ResetAction},
					{Name: "test", Usage: "Check the backend connection", Action: settings.TestAction},
				},
			},
			{
				Name:  "stats",
				Usage: "Usage statistics",
				Subcommands: []*cli.Command{
					{Name: "show", Flags: []cli.Flag{formatFlag(common.FormatTable)}, Action: db.StatsAction},
					{Name: "clear", Action: db.ClearStatsAction},
				},
			},
			{
				Name:  "db",
				Usage: "Scan history",
				Subcommands: []*cli.Command{
					{
						Name:   "scans",
						Usage:  "List recorded scans",
						Flags:  []cli.Flag{&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20}},
						Action: db.ScansAction,
					},
					{
						Name:      "scan",
						Usage:     "Show a scan and its items (default: latest)",
						ArgsUsage: "[ID]",
						Flags:     []cli.Flag{formatFlag(common.FormatTable)},
						Action:    db.ScanAction,
					},
					{
						Name:  "query",
						Usage: "Filter scans",
						Flags: []cli.Flag{
							&cli.BoolFlag{Name: "today"},
							&cli.BoolFlag{Name: "failed"},
							&cli.StringFlag{Name: "platform"},
						},
						Action: db.QueryScansAction,
					},
					{Name: "init", Usage: "Initialize database schema", Action: db.InitAction},
				},
			},
			{
				Name:  "export",
				Usage: "Export settings, statistics and cached summaries as JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file (default: stdout)"},
					&cli.BoolFlag{Name: "include-secrets", Usage: "include the unmasked API key"},
					cacheDirFlag(),
				},
				Action: export.ExportAction,
			},
			{
				Name:   "platforms",
				Usage:  "List supported chat platforms",
				Flags:  []cli.Flag{formatFlag(common.FormatTable)},
				Action: scan.PlatformsAction,
			},
			{
				Name:  "serve",
				Usage: "Run the summarization backend",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "env-file", Value: ".env"},
					&cli.IntFlag{Name: "port", Usage: "listen port (default: BACKEND_PORT or 8080)"},
				},
				Action: serve.ServeAction,
			},
			{
				Name:  "quickstart",
				Usage: "Print a quick reference",
				Action: func(c *cli.Context) error {
					fmt.Print(help.ColdstartYAML)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

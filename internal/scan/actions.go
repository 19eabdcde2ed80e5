package scan

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dtnitsch/docufind/internal/common"
	"github.com/dtnitsch/docufind/models"
	"github.com/dtnitsch/docufind/pkg/db"
	"github.com/dtnitsch/docufind/pkg/filter"
	"github.com/dtnitsch/docufind/pkg/scanner"
	"github.com/urfave/cli/v2"
)

// nameWidth is the table width of the name column.
const nameWidth = 40

// Output is the json/yaml form of a scan.
type Output struct {
	ScanID    int64                    `json:"scan_id,omitempty" yaml:"scan_id,omitempty"`
	Source    string                   `json:"source" yaml:"source"`
	Platform  string                   `json:"platform" yaml:"platform"`
	ChatTitle string                   `json:"chat_title,omitempty" yaml:"chat_title,omitempty"`
	Counts    filter.Counts            `json:"counts" yaml:"counts"`
	Items     []map[string]interface{} `json:"items" yaml:"items"`
}

// QueryFromFlags builds the filter query of --search, --type and --recent.
func QueryFromFlags(c *cli.Context) (filter.Query, error) {
	typ := strings.ToLower(c.String("type"))
	if typ != "" && typ != filter.TypeAll {
		if _, ok := models.ParseItemType(typ); !ok {
			return filter.Query{}, fmt.Errorf("unknown type: %s (use: all, document, image, media, or link)", typ)
		}
	}
	return filter.Query{
		Search:     c.String("search"),
		Type:       typ,
		RecentOnly: c.Bool("recent"),
	}, nil
}

func ScanAction(c *cli.Context) error {
	logger := common.NewLogger(c)
	startTime := time.Now()

	cfg, err := common.ConfigFromContext(c)
	if err != nil {
		return err
	}
	query, err := QueryFromFlags(c)
	if err != nil {
		return err
	}
	format := c.String("format")

	target, err := LoadTarget(c.Context, c)
	if err != nil {
		return err
	}
	plan, err := ResolvePlan(cfg.Registry(), target.Host, c.String("platform"), c.Bool("generic"))
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

	logger.Info("Scanning", "source", target.Source, "platform", plan.PlatformName(), "host", target.Host)
	items, scanErr := plan.Scan(target.Doc, scanner.WithBaseURL(target.Base), scanner.WithLogger(logger))
	chatTitle := plan.ChatTitle(target.Doc)

	var scanID int64
	if c.Bool("save") {
		scanID, err = database.RecordScan(target.Source, plan.PlatformName(), chatTitle, items, scanErr)
		if err != nil {
			logger.Error("failed to record scan", "error", err)
		}
	}
	if scanErr != nil {
		return fmt.Errorf("scan failed: %w", scanErr)
	}
	if err := database.RecordScanStats(len(items)); err != nil {
		logger.Warn("failed to update statistics", "error", err)
	}

	visible := filter.Visible(items, query, time.Now())
	logger.Info("Scan complete", "items", len(items), "visible", len(visible), "duration", time.Since(startTime).String())

	if format == common.FormatTable {
		PrintTable(os.Stdout, visible, filter.Count(items), settings)
		return nil
	}
	return common.Render(os.Stdout, format, Output{
		ScanID:    scanID,
		Source:    target.Source,
		Platform:  plan.PlatformName(),
		ChatTitle: chatTitle,
		Counts:    filter.Count(items),
		Items:     common.FilterItemFields(visible, c.String("fields")),
	})
}

// PrintTable writes items as a fixed-width table. The showTimestamps and
// groupByType settings shape the columns and ordering.
func PrintTable(w io.Writer, items []models.ScannedItem, counts filter.Counts, settings models.Settings) {
	fmt.Fprintf(w, "All %d | Documents %d | Images %d | Links %d\n\n",
		counts.Total, counts.Document, counts.Image, counts.Link)

	if len(items) == 0 {
		fmt.Fprintln(w, "No items found")
		return
	}

	if settings.ShowTimestamps {
		fmt.Fprintf(w, "%-14s %-9s %-17s %-*s %s\n", "ID", "Type", "Time", nameWidth, "Name", "Target")
	} else {
		fmt.Fprintf(w, "%-14s %-9s %-*s %s\n", "ID", "Type", nameWidth, "Name", "Target")
	}
	fmt.Fprintln(w, strings.Repeat("-", 120))

	rows := items
	if settings.GroupByType {
		rows = groupByType(items)
	}
	for _, it := range rows {
		name := filter.Truncate(it.Name, nameWidth)
		if settings.ShowTimestamps {
			fmt.Fprintf(w, "%-14s %-9s %-17s %-*s %s\n", it.ID, it.Type,
				time.UnixMilli(it.Timestamp).Format("2006-01-02 15:04"), nameWidth, name, it.Target())
		} else {
			fmt.Fprintf(w, "%-14s %-9s %-*s %s\n", it.ID, it.Type, nameWidth, name, it.Target())
		}
	}

	fmt.Fprintf(w, "\nShowing %d of %d items\n", len(items), counts.Total)
}

var typeOrder = []models.ItemType{models.ItemDocument, models.ItemMedia, models.ItemImage, models.ItemLink}

func groupByType(items []models.ScannedItem) []models.ScannedItem {
	out := make([]models.ScannedItem, 0, len(items))
	for _, t := range typeOrder {
		for _, it := range items {
			if it.Type == t {
				out = append(out, it)
			}
		}
	}
	return out
}

// PlatformsAction lists the supported platforms, configured ones first.
func PlatformsAction(c *cli.Context) error {
	cfg, err := common.ConfigFromContext(c)
	if err != nil {
		return err
	}
	profiles := cfg.Registry().Profiles()

	format := c.String("format")
	if format != common.FormatTable {
		return common.Render(os.Stdout, format, profiles)
	}

	fmt.Printf("%-12s %-18s %-22s\n", "ID", "Name", "Domain")
	fmt.Println(strings.Repeat("-", 54))
	for _, p := range profiles {
		fmt.Printf("%-12s %-18s %-22s\n", p.ID, p.DisplayName, p.Domain)
	}
	fmt.Printf("\nOther hosts: docufind scan --generic\n")
	return nil
}

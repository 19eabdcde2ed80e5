package db

import (
	"fmt"
	"os"
	"strings"

	"github.com/dtnitsch/docufind/internal/common"
	dbpkg "github.com/dtnitsch/docufind/pkg/db"
	"github.com/dtnitsch/docufind/pkg/filter"
	"github.com/urfave/cli/v2"
)

func ScansAction(c *cli.Context) error {
	database, err := dbpkg.Open()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	scans, err := database.ListScans(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list scans: %w", err)
	}

	if len(scans) == 0 {
		fmt.Println("No scans found")
		fmt.Println("\nTip: Use 'docufind scan --save ...' to record scans")
		return nil
	}

	printScans(scans)
	fmt.Printf("\nTotal: %d scans\n", len(scans))
	fmt.Printf("\nTip: Use 'docufind db scan <id>' to see details\n")
	return nil
}

// ScanAction shows one recorded scan and its items
func ScanAction(c *cli.Context) error {
	database, err := dbpkg.Open()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	scanID, err := GetScanIDOrLatest(c, database)
	if err != nil {
		return err
	}

	scan, err := database.GetScanByID(scanID)
	if err != nil {
		return fmt.Errorf("failed to get scan: %w", err)
	}
	items, err := database.GetScanItems(scanID)
	if err != nil {
		return fmt.Errorf("failed to get scan items: %w", err)
	}

	if format := c.String("format"); format != common.FormatTable {
		return common.Render(os.Stdout, format, map[string]interface{}{
			"scan":  scan,
			"items": items,
		})
	}

	fmt.Printf("Scan %d\n", scan.ScanID)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Created:   %s\n", scan.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Source:    %s\n", scan.Source)
	fmt.Printf("Platform:  %s\n", scan.Platform)
	if scan.ChatTitle != "" {
		fmt.Printf("Chat:      %s\n", scan.ChatTitle)
	}
	fmt.Printf("Status:    %s\n", scan.Status)
	if scan.Status == dbpkg.ScanFailed {
		fmt.Printf("Error:     %s\n", scan.ErrorMessage)
		return nil
	}

	fmt.Printf("\nItems (%d):\n", len(items))
	fmt.Println(strings.Repeat("-", 60))
	for i, it := range items {
		fmt.Printf("%2d. [%s] %s\n", i+1, it.Type, filter.Truncate(it.Name, 60))
		if target := it.Target(); target != "" {
			fmt.Printf("    %s\n", target)
		}
	}
	return nil
}

// QueryScansAction queries scans with filters
func QueryScansAction(c *cli.Context) error {
	database, err := dbpkg.Open()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	todayOnly := c.Bool("today")
	failedOnly := c.Bool("failed")
	platform := c.String("platform")

	scans, err := database.QueryScans(todayOnly, failedOnly, platform)
	if err != nil {
		return fmt.Errorf("failed to query scans: %w", err)
	}

	if len(scans) == 0 {
		fmt.Println("No scans found matching filters")
		if todayOnly {
			fmt.Println("  - Filter: today only")
		}
		if failedOnly {
			fmt.Println("  - Filter: failed only")
		}
		if platform != "" {
			fmt.Printf("  - Filter: platform '%s'\n", platform)
		}
		return nil
	}

	printScans(scans)
	fmt.Printf("\nFound: %d scans\n", len(scans))
	return nil
}

func printScans(scans []dbpkg.Scan) {
	fmt.Printf("%-6s %-20s %-16s %-7s %-8s %-30s\n",
		"ID", "Created", "Platform", "Items", "Status", "Source")
	fmt.Println(strings.Repeat("-", 100))
	for _, s := range scans {
		fmt.Printf("%-6d %-20s %-16s %-7d %-8s %-30s\n",
			s.ScanID,
			s.CreatedAt.Format("2006-01-02 15:04:05"),
			filter.Truncate(s.Platform, 16),
			s.ItemCount,
			s.Status,
			s.Source,
		)
	}
}

func InitAction(c *cli.Context) error {
	database, err := dbpkg.Open()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if err := database.InitSchema(); err != nil {
		return err
	}
	fmt.Printf("Database ready: %s\n", database.Path())
	return nil
}

// StatsAction prints the usage counters
func StatsAction(c *cli.Context) error {
	database, err := dbpkg.Open()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	stats, err := database.GetStats()
	if err != nil {
		return err
	}

	if format := c.String("format"); format != common.FormatTable {
		return common.Render(os.Stdout, format, stats)
	}
	fmt.Printf("Total scans:          %d\n", stats.TotalScans)
	fmt.Printf("Items found:          %d\n", stats.TotalItems)
	fmt.Printf("Summaries generated:  %d\n", stats.SummariesGenerated)
	return nil
}

func ClearStatsAction(c *cli.Context) error {
	database, err := dbpkg.Open()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if err := database.ClearStats(); err != nil {
		return err
	}
	fmt.Println("Statistics cleared")
	return nil
}

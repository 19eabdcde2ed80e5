package db

import (
	"fmt"

	dbpkg "github.com/dtnitsch/docufind/pkg/db"
	"github.com/urfave/cli/v2"
)

// GetScanIDOrLatest returns the scan ID from args, or the latest scan if not provided
func GetScanIDOrLatest(c *cli.Context, database *dbpkg.DB) (int64, error) {
	if c.NArg() == 0 {
		scans, err := database.ListScans(1)
		if err != nil {
			return 0, fmt.Errorf("failed to get latest scan: %w", err)
		}
		if len(scans) == 0 {
			return 0, fmt.Errorf("no scans found. Run 'docufind scan --save ...' first")
		}
		return scans[0].ScanID, nil
	}

	var scanID int64
	if _, err := fmt.Sscanf(c.Args().First(), "%d", &scanID); err != nil {
		return 0, fmt.Errorf("invalid scan ID: %s", c.Args().First())
	}
	return scanID, nil
}

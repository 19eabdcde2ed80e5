package summarize

import (
	"fmt"
	"io"
	"strings"

	"github.com/dtnitsch/docufind/models"
)

// PrintResults writes one block per result. Cached and live results
// print the same.
func PrintResults(w io.Writer, results []models.SummaryResult) {
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s\n%s\n", r.ItemID, strings.Repeat("=", len(r.ItemID)))
		if r.Error != "" {
			fmt.Fprintf(w, "Error: %s\n", r.Error)
			continue
		}
		fmt.Fprintln(w, r.Summary)
	}
}

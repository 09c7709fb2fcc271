// Package export writes run results in tabular form.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/pfrederiksen/event-scout/internal/event"
)

// CSVHeader is the column order of WriteCSV
var CSVHeader = []string{"date", "name", "time", "location", "category", "url", "snippet"}

// WriteCSV writes one row per event after a header row.
// Absent dates are written as empty cells and unparsed dates as their source text.
func WriteCSV(w io.Writer, events []event.CategorizedCandidate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, evt := range events {
		row := []string{
			evt.Date.String(),
			evt.Name,
			evt.Time,
			evt.Location,
			string(evt.Category),
			evt.URL,
			evt.Snippet,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row for %s: %w", evt.URL, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

package pipeline

import (
	"errors"
	"sort"

	"github.com/pfrederiksen/event-scout/internal/event"
	"github.com/pfrederiksen/event-scout/internal/logger"
)

var errUnparsedDate = errors.New("date does not match " + event.DateLayout)

// Normalize deduplicates candidates, parses their dates and sorts them.
//
// The first candidate for each key wins (see event.RawCandidate.Key). Dates that
// do not parse are kept as unparsed values and reported as KindDateParse warnings.
// Output is ordered by parsed date ascending; unparsed and undated candidates
// follow, in input order.
func Normalize(candidates []event.RawCandidate) ([]event.NormalizedCandidate, []*Error) {
	seen := make(map[string]bool)
	clean := make([]event.NormalizedCandidate, 0, len(candidates))
	var warnings []*Error

	for _, c := range candidates {
		key := c.Key()
		if seen[key] {
			continue
		}
		seen[key] = true

		n := c.Normalize()
		if n.Date.Kind == event.DateUnparsed {
			warnings = append(warnings, newError(KindDateParse, c.URL, errUnparsedDate))
		}
		clean = append(clean, n)
	}

	sort.SliceStable(clean, func(i, j int) bool {
		return clean[i].Date.Before(clean[j].Date)
	})

	logger.Info("normalized candidates", logger.Fields{
		"input":      len(candidates),
		"retained":   len(clean),
		"duplicates": len(candidates) - len(clean),
		"unparsed":   len(warnings),
	})
	return clean, warnings
}

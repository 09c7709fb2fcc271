package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/event-scout/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate     SortOrder = "date"
	SortByName     SortOrder = "name"
	SortByCategory SortOrder = "category"
)

// ParseSortOrder validates a --sort value
func ParseSortOrder(s string) (SortOrder, error) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(s))); order {
	case SortByDate, SortByName, SortByCategory:
		return order, nil
	case "":
		return SortByDate, nil
	default:
		return "", fmt.Errorf("invalid sort: %s (must be 'date', 'name', or 'category')", s)
	}
}

// sortEvents sorts a slice of events based on the specified sort order.
// The sort is stable so equal events keep their pipeline order.
func sortEvents(events []event.CategorizedCandidate, sortOrder SortOrder) {
	switch sortOrder {
	case SortByDate:
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Date.Before(events[j].Date)
		})
	case SortByName:
		sort.SliceStable(events, func(i, j int) bool {
			ni, nj := strings.ToLower(events[i].Name), strings.ToLower(events[j].Name)
			if ni != nj {
				// Unnamed events go last
				if ni == "" || nj == "" {
					return nj == ""
				}
				return ni < nj
			}
			// If names are equal, sort by date
			return events[i].Date.Before(events[j].Date)
		})
	case SortByCategory:
		sort.SliceStable(events, func(i, j int) bool {
			ci, cj := categoryRank(events[i].Category), categoryRank(events[j].Category)
			if ci != cj {
				return ci < cj
			}
			// If categories are equal, sort by date
			return events[i].Date.Before(events[j].Date)
		})
	}
}

// categoryRank is the position of c in the display order
func categoryRank(c event.Category) int {
	for i, known := range event.Categories {
		if c == known {
			return i
		}
	}
	return len(event.Categories)
}

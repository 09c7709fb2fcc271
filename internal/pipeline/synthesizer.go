package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/event-scout/internal/event"
)

const unknown = "Unknown"

// GroupByDate groups candidates under their date label, keeping input order
// within each group.
func GroupByDate(candidates []event.CategorizedCandidate) map[string][]event.CategorizedCandidate {
	groups := make(map[string][]event.CategorizedCandidate)
	for _, c := range candidates {
		label := c.Date.Label()
		groups[label] = append(groups[label], c)
	}
	return groups
}

// Synthesize renders the grouped candidates as a flat text report.
//
// Groups appear in ascending lexical order of their label, each headed by
// "=== <label> ===" and followed by one "<name> at <location> (<time>)" line per
// candidate. Groups are separated by a blank line.
func Synthesize(eventsByDate map[string][]event.CategorizedCandidate) string {
	labels := make([]string, 0, len(eventsByDate))
	for label := range eventsByDate {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var report strings.Builder
	for _, label := range labels {
		fmt.Fprintf(&report, "=== %s ===\n", label)
		for _, c := range eventsByDate[label] {
			fmt.Fprintf(&report, "%s at %s (%s)\n", c.DisplayName(), orUnknown(c.Location), orUnknown(c.Time))
		}
		report.WriteString("\n")
	}
	return report.String()
}

func orUnknown(s string) string {
	if isBlank(s) {
		return unknown
	}
	return strings.TrimSpace(s)
}

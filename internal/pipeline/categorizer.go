package pipeline

import (
	"github.com/pfrederiksen/event-scout/internal/event"
	"github.com/pfrederiksen/event-scout/internal/logger"
)

// Categorize assigns every candidate exactly one category from its name.
// It returns the candidates in input order together with a mapping that holds
// every category, including ones no candidate matched.
func Categorize(candidates []event.ValidatedCandidate) ([]event.CategorizedCandidate, map[event.Category][]event.CategorizedCandidate) {
	byCategory := make(map[event.Category][]event.CategorizedCandidate, len(event.Categories))
	for _, c := range event.Categories {
		byCategory[c] = []event.CategorizedCandidate{}
	}

	out := make([]event.CategorizedCandidate, 0, len(candidates))
	for _, c := range candidates {
		cc := event.CategorizedCandidate{
			ValidatedCandidate: c,
			Category:           event.Classify(c.Name),
		}
		out = append(out, cc)
		byCategory[cc.Category] = append(byCategory[cc.Category], cc)
	}

	counts := logger.Fields{}
	for _, c := range event.Categories {
		counts[string(c)] = len(byCategory[c])
	}
	logger.Info("categorized candidates", counts)

	return out, byCategory
}

// Package filter narrows a run's categorized events for presentation.
//
// A filter combines up to three criteria, all of which must hold:
//   - Date range: the event's parsed date lies within DateFrom and DateTo (inclusive)
//   - Categories: the event's category is one of the selected categories
//   - Text: the event's name or location contains at least one of the terms
//
// Events whose date is absent or could not be parsed never match an active date range.
//
// Example usage:
//
//	f := filter.NewFilter()
//	f.Categories = []event.Category{event.CategoryMusic}
//	f.Text = []string{"jazz"}
//
//	shown := f.Apply(result.Events)
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/event-scout/internal/event"
)

// Filter represents event filtering criteria
type Filter struct {
	// Date range filtering
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	// Category filtering (any of)
	Categories []event.Category `json:"categories,omitempty"`

	// Name/location filtering (case-insensitive substring match, any of)
	Text []string `json:"text,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
// The filter will match all events until criteria are added.
func NewFilter() *Filter {
	return &Filter{
		Categories: []event.Category{},
		Text:       []string{},
	}
}

// IsEmpty checks if the filter has any active criteria.
// Returns true if the filter would match all events.
func (f *Filter) IsEmpty() bool {
	return f == nil || (f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Categories) == 0 &&
		len(f.Text) == 0)
}

// Matches checks if an event matches all active filter criteria.
// An empty filter matches all events.
func (f *Filter) Matches(evt event.CategorizedCandidate) bool {
	if f.IsEmpty() {
		return true
	}

	if f.DateFrom != nil || f.DateTo != nil {
		if !evt.Date.IsParsed() {
			return false
		}
		day := evt.Date.Value
		if f.DateFrom != nil && day.Before(truncateDay(*f.DateFrom)) {
			return false
		}
		if f.DateTo != nil && day.After(truncateDay(*f.DateTo)) {
			return false
		}
	}

	if len(f.Categories) > 0 {
		matched := false
		for _, c := range f.Categories {
			if evt.Category == c {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(f.Text) > 0 {
		matched := false
		nameLower := strings.ToLower(evt.Name)
		locationLower := strings.ToLower(evt.Location)
		for _, term := range f.Text {
			term = strings.ToLower(strings.TrimSpace(term))
			if term == "" {
				continue
			}
			if strings.Contains(nameLower, term) || strings.Contains(locationLower, term) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

// Apply applies the filter to a list of events and returns only matching events.
// If the filter is empty, returns the original list unchanged.
// Order is preserved.
func (f *Filter) Apply(events []event.CategorizedCandidate) []event.CategorizedCandidate {
	if f.IsEmpty() {
		return events
	}

	filtered := make([]event.CategorizedCandidate, 0, len(events))
	for _, evt := range events {
		if f.Matches(evt) {
			filtered = append(filtered, evt)
		}
	}

	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Returns "No active filters" if the filter is empty.
// Format: "From: Mar 1, 2025 | To: Mar 15, 2025 | Categories: Music | Text: jazz"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("Jan 2, 2006")))
	}

	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("Jan 2, 2006")))
	}

	if len(f.Categories) > 0 {
		names := make([]string, len(f.Categories))
		for i, c := range f.Categories {
			names[i] = string(c)
		}
		parts = append(parts, fmt.Sprintf("Categories: %s", strings.Join(names, ", ")))
	}

	if len(f.Text) > 0 {
		parts = append(parts, fmt.Sprintf("Text: %s", strings.Join(f.Text, ", ")))
	}

	return strings.Join(parts, " | ")
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

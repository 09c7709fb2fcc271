package filter

import (
	"testing"
	"time"

	"github.com/pfrederiksen/event-scout/internal/event"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func candidate(name, date, location string, category event.Category) event.CategorizedCandidate {
	var c event.CategorizedCandidate
	c.Name = name
	c.Date = event.ParseDate(date)
	c.Location = location
	c.Category = category
	return c
}

func TestFilter_IsEmpty(t *testing.T) {
	tests := []struct {
		name   string
		filter *Filter
		want   bool
	}{
		{
			name:   "empty filter",
			filter: NewFilter(),
			want:   true,
		},
		{
			name:   "nil filter",
			filter: nil,
			want:   true,
		},
		{
			name: "filter with date from",
			filter: &Filter{
				DateFrom: timePtr(time.Now()),
			},
			want: false,
		},
		{
			name: "filter with category",
			filter: &Filter{
				Categories: []event.Category{event.CategoryArt},
			},
			want: false,
		},
		{
			name: "filter with text",
			filter: &Filter{
				Text: []string{"jazz"},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.IsEmpty(); got != tt.want {
				t.Errorf("Filter.IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_Matches(t *testing.T) {
	mar1 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	mar15 := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter *Filter
		event  event.CategorizedCandidate
		want   bool
	}{
		{
			name:   "empty filter matches all",
			filter: NewFilter(),
			event:  candidate("Jazz Night", "", "", event.CategoryMusic),
			want:   true,
		},
		{
			name:   "date inside range",
			filter: &Filter{DateFrom: &mar1, DateTo: &mar15},
			event:  candidate("Jazz Night", "2025-03-10", "", event.CategoryMusic),
			want:   true,
		},
		{
			name:   "range bounds are inclusive",
			filter: &Filter{DateFrom: &mar1, DateTo: &mar15},
			event:  candidate("Jazz Night", "2025-03-15", "", event.CategoryMusic),
			want:   true,
		},
		{
			name:   "date before range",
			filter: &Filter{DateFrom: &mar1},
			event:  candidate("Jazz Night", "2025-02-28", "", event.CategoryMusic),
			want:   false,
		},
		{
			name:   "date after range",
			filter: &Filter{DateTo: &mar15},
			event:  candidate("Jazz Night", "2025-03-16", "", event.CategoryMusic),
			want:   false,
		},
		{
			name:   "unparsed date excluded by active range",
			filter: &Filter{DateFrom: &mar1},
			event:  candidate("Jazz Night", "next Friday", "", event.CategoryMusic),
			want:   false,
		},
		{
			name:   "absent date excluded by active range",
			filter: &Filter{DateTo: &mar15},
			event:  candidate("Jazz Night", "", "", event.CategoryMusic),
			want:   false,
		},
		{
			name:   "category matches one of",
			filter: &Filter{Categories: []event.Category{event.CategoryArt, event.CategoryMusic}},
			event:  candidate("Jazz Night", "", "", event.CategoryMusic),
			want:   true,
		},
		{
			name:   "category does not match",
			filter: &Filter{Categories: []event.Category{event.CategoryFestival}},
			event:  candidate("Jazz Night", "", "", event.CategoryMusic),
			want:   false,
		},
		{
			name:   "text matches name case-insensitively",
			filter: &Filter{Text: []string{"JAZZ"}},
			event:  candidate("Jazz Night", "", "", event.CategoryMusic),
			want:   true,
		},
		{
			name:   "text matches location",
			filter: &Filter{Text: []string{"pike"}},
			event:  candidate("Jazz Night", "", "Pike Place Market", event.CategoryMusic),
			want:   true,
		},
		{
			name:   "text does not match",
			filter: &Filter{Text: []string{"opera"}},
			event:  candidate("Jazz Night", "", "Pike Place Market", event.CategoryMusic),
			want:   false,
		},
		{
			name: "all criteria must hold",
			filter: &Filter{
				DateFrom:   &mar1,
				Categories: []event.Category{event.CategoryMusic},
				Text:       []string{"opera"},
			},
			event: candidate("Jazz Night", "2025-03-05", "", event.CategoryMusic),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.event); got != tt.want {
				t.Errorf("Filter.Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_Apply(t *testing.T) {
	events := []event.CategorizedCandidate{
		candidate("Spring Parade", "2025-02-15", "4th Ave", event.CategoryFestival),
		candidate("Jazz Concert", "2025-03-01", "Park", event.CategoryMusic),
		candidate("Gallery Walk", "", "Pioneer Square", event.CategoryArt),
	}

	t.Run("empty filter returns input", func(t *testing.T) {
		got := NewFilter().Apply(events)
		if len(got) != len(events) {
			t.Errorf("Apply() returned %d events, want %d", len(got), len(events))
		}
	})

	t.Run("order is preserved", func(t *testing.T) {
		f := &Filter{Categories: []event.Category{event.CategoryFestival, event.CategoryArt}}
		got := f.Apply(events)
		if len(got) != 2 {
			t.Fatalf("Apply() returned %d events, want 2", len(got))
		}
		if got[0].Name != "Spring Parade" || got[1].Name != "Gallery Walk" {
			t.Errorf("Apply() order = [%s %s]", got[0].Name, got[1].Name)
		}
	})

	t.Run("no matches yields empty slice", func(t *testing.T) {
		f := &Filter{Text: []string{"nothing"}}
		got := f.Apply(events)
		if got == nil || len(got) != 0 {
			t.Errorf("Apply() = %v, want empty non-nil slice", got)
		}
	})
}

func TestFilter_String(t *testing.T) {
	mar1 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter *Filter
		want   string
	}{
		{
			name:   "empty",
			filter: NewFilter(),
			want:   "No active filters",
		},
		{
			name: "all criteria",
			filter: &Filter{
				DateFrom:   &mar1,
				Categories: []event.Category{event.CategoryMusic, event.CategoryArt},
				Text:       []string{"jazz"},
			},
			want: "From: Mar 1, 2025 | Categories: Music, Art | Text: jazz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

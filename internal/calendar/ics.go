// Package calendar renders run results as an iCalendar feed.
package calendar

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/pfrederiksen/event-scout/internal/event"
)

// ProductID identifies the generator in the PRODID property
const ProductID = "-//Event Scout//event-scout//EN"

// uidDomain scopes event UIDs
const uidDomain = "event-scout"

// Generate builds a calendar with one all-day VEVENT per event with a parsed date.
// Events with an absent or unparsed date are skipped since they cannot be placed on a day.
func Generate(events []event.CategorizedCandidate, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)

	for _, evt := range events {
		if !evt.Date.IsParsed() {
			continue
		}
		addEvent(cal, evt, now)
	}

	return cal.Serialize()
}

// Count returns how many events Generate would include
func Count(events []event.CategorizedCandidate) int {
	n := 0
	for _, evt := range events {
		if evt.Date.IsParsed() {
			n++
		}
	}
	return n
}

func addEvent(cal *ical.Calendar, evt event.CategorizedCandidate, now time.Time) {
	ve := cal.AddEvent(fmt.Sprintf("%s@%s", evt.ID(), uidDomain))
	ve.SetDtStampTime(now.UTC())

	day := evt.Date.Value
	ve.SetAllDayStartAt(day)
	ve.SetAllDayEndAt(day.AddDate(0, 0, 1))

	ve.SetSummary(evt.DisplayName())
	if evt.Location != "" {
		ve.SetLocation(evt.Location)
	}
	if evt.URL != "" {
		ve.SetURL(evt.URL)
	}
	if desc := description(evt); desc != "" {
		ve.SetDescription(desc)
	}
	ve.AddProperty(ical.ComponentPropertyCategories, string(evt.Category))
	ve.SetStatus(ical.ObjectStatusConfirmed)
}

func description(evt event.CategorizedCandidate) string {
	var lines []string
	if evt.Time != "" {
		lines = append(lines, "Time: "+evt.Time)
	}
	if evt.Snippet != "" {
		lines = append(lines, evt.Snippet)
	}
	if evt.URL != "" {
		lines = append(lines, "Source: "+evt.URL)
	}
	return strings.Join(lines, "\n")
}

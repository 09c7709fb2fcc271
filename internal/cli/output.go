package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pfrederiksen/event-scout/internal/calendar"
	"github.com/pfrederiksen/event-scout/internal/event"
	"github.com/pfrederiksen/event-scout/internal/export"
	"github.com/pfrederiksen/event-scout/internal/logger"
	"github.com/pfrederiksen/event-scout/internal/pipeline"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText   OutputFormat = "text"
	FormatJSON   OutputFormat = "json"
	FormatCSV    OutputFormat = "csv"
	FormatICS    OutputFormat = "ics"
	FormatReport OutputFormat = "report"
)

// ParseOutputFormat validates a --format value
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch format := OutputFormat(strings.ToLower(strings.TrimSpace(s))); format {
	case FormatText, FormatJSON, FormatCSV, FormatICS, FormatReport:
		return format, nil
	default:
		return "", fmt.Errorf("invalid format: %s (must be 'text', 'json', 'csv', 'ics', or 'report')", s)
	}
}

// OutputResult contains data to be output
type OutputResult struct {
	RunID      string                                          `json:"run_id"`
	Query      string                                          `json:"query"`
	Validated  bool                                            `json:"validated"`
	CheckedAt  time.Time                                       `json:"checked_at"`
	Filter     string                                          `json:"filter"`
	Events     []event.CategorizedCandidate                    `json:"events"`
	EventCount int                                             `json:"event_count"`
	TotalCount int                                             `json:"total_count"`
	ByCategory map[event.Category][]event.CategorizedCandidate `json:"by_category,omitempty"`
	Validation *pipeline.ValidationMeta                        `json:"validation,omitempty"`
	Warnings   []*pipeline.Error                               `json:"warnings,omitempty"`
}

// newOutputResult builds the output view of a run over the filtered events
func newOutputResult(res *pipeline.Result, events []event.CategorizedCandidate, filterDesc string, now time.Time) *OutputResult {
	out := &OutputResult{
		RunID:      res.RunID,
		Query:      res.Query,
		Validated:  res.Validated,
		CheckedAt:  now.UTC(),
		Filter:     filterDesc,
		Events:     events,
		EventCount: len(events),
		TotalCount: len(res.Events),
		ByCategory: groupByCategory(events),
		Warnings:   res.Warnings,
	}
	if res.Validation != nil {
		meta := res.Validation.Meta
		out.Validation = &meta
	}
	return out
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	case FormatCSV:
		return export.WriteCSV(w, result.Events)
	case FormatICS:
		exported := calendar.Count(result.Events)
		logger.Info("Exporting calendar", logger.Fields{
			"exported": exported,
			"skipped":  len(result.Events) - exported,
		})
		_, err := io.WriteString(w, calendar.Generate(result.Events, result.CheckedAt))
		return err
	case FormatReport:
		_, err := io.WriteString(w, pipeline.Synthesize(pipeline.GroupByDate(result.Events)))
		return err
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeText outputs results as human-readable text grouped by category
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if result.EventCount == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	groups := 0
	for _, category := range event.Categories {
		events := result.ByCategory[category]
		if len(events) == 0 {
			continue
		}
		groups++

		fmt.Fprintf(w, "\n%s (%d events):\n", category, len(events))
		for _, evt := range events {
			fmt.Fprintf(w, "  %s\n", formatLine(evt))
			if verbose {
				fmt.Fprintf(w, "       URL: %s\n", evt.URL)
				if !evt.Complete {
					fmt.Fprintln(w, "       Incomplete: missing name or date")
				}
				if evt.Snippet != "" {
					fmt.Fprintf(w, "       Snippet: %s\n", oneLine(evt.Snippet, 120))
				}
			}
		}
	}

	fmt.Fprintf(w, "\nTotal: %d events across %d categories\n", result.EventCount, groups)
	if result.TotalCount != result.EventCount {
		fmt.Fprintf(w, "Filtered from %d events (%s)\n", result.TotalCount, result.Filter)
	}
	if verbose {
		if result.Validation != nil {
			fmt.Fprintf(w, "Validation: %d candidates, %d fallback calls, %d incomplete\n",
				result.Validation.TotalCandidates, result.Validation.FallbackCallsMade, result.Validation.IncompleteCount)
		}
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "Warning: %v\n", warning)
		}
	}

	return nil
}

// formatLine renders "<date>  <name> @ <location> (<time>)", leaving out missing parts
func formatLine(evt event.CategorizedCandidate) string {
	var b strings.Builder
	b.WriteString(evt.Date.Label())
	b.WriteString("  ")
	b.WriteString(evt.DisplayName())
	if evt.Location != "" {
		fmt.Fprintf(&b, " @ %s", evt.Location)
	}
	if evt.Time != "" {
		fmt.Fprintf(&b, " (%s)", evt.Time)
	}
	return b.String()
}

// groupByCategory buckets events by category, keeping their order
func groupByCategory(events []event.CategorizedCandidate) map[event.Category][]event.CategorizedCandidate {
	groups := make(map[event.Category][]event.CategorizedCandidate)
	for _, evt := range events {
		groups[evt.Category] = append(groups[evt.Category], evt)
	}
	return groups
}

func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max]) + "..."
	}
	return s
}

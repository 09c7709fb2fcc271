package telegram

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pfrederiksen/event-scout/internal/event"
)

// MaxMessageLength is the Bot API limit for a single message
const MaxMessageLength = 4096

// maxFieldRunes caps each text field of a digest line before it is escaped
const maxFieldRunes = 200

// FormatDigest formats a batch of events as a digest message
func FormatDigest(events []event.CategorizedCandidate) string {
	if len(events) == 0 {
		return "No events found."
	}

	var msg strings.Builder
	msg.WriteString("📬 <b>Free events digest</b>\n\n")
	fmt.Fprintf(&msg, "🗓 %d event%s\n\n", len(events), pluralize(len(events)))

	// Group events by date label
	byDate := make(map[string][]event.CategorizedCandidate)
	for _, evt := range events {
		label := evt.Date.Label()
		byDate[label] = append(byDate[label], evt)
	}

	labels := make([]string, 0, len(byDate))
	for label := range byDate {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		dateEvents := byDate[label]
		fmt.Fprintf(&msg, "📅 <b>%s</b> (%d event%s)\n", escapeField(label), len(dateEvents), pluralize(len(dateEvents)))

		for _, evt := range dateEvents {
			line := formatDigestLine(evt, true)
			if utf8.RuneCountInString(line) > MaxMessageLength {
				line = formatDigestLine(evt, false)
			}
			msg.WriteString(line)
		}
		msg.WriteString("\n")
	}

	return strings.TrimRight(msg.String(), "\n")
}

// formatDigestLine renders one event. Fields are truncated as plain text so
// tags are never cut; withLink is false when the URL would overflow a message.
func formatDigestLine(evt event.CategorizedCandidate, withLink bool) string {
	var line strings.Builder
	name := escapeField(evt.DisplayName())
	if withLink && evt.URL != "" {
		name = fmt.Sprintf("<a href=\"%s\">%s</a>", html.EscapeString(evt.URL), name)
	}
	fmt.Fprintf(&line, "  • %s", name)
	if evt.Time != "" {
		fmt.Fprintf(&line, " (%s)", escapeField(evt.Time))
	}
	if evt.Location != "" {
		fmt.Fprintf(&line, " - %s", escapeField(evt.Location))
	}
	fmt.Fprintf(&line, " <i>#%s</i>\n", evt.Category)
	return line.String()
}

func escapeField(s string) string {
	runes := []rune(s)
	if len(runes) > maxFieldRunes {
		s = string(runes[:maxFieldRunes-3]) + "..."
	}
	return html.EscapeString(s)
}

// SplitMessage breaks text into chunks of at most limit characters, cutting
// on line boundaries. A single line longer than limit is cut mid-line;
// FormatDigest never produces such a line for MaxMessageLength.
func SplitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, strings.TrimRight(current.String(), "\n"))
			current.Reset()
			currentLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		runes := []rune(line)
		for len(runes) > limit {
			flush()
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}
		if currentLen+len(runes) > limit {
			flush()
		}
		current.WriteString(string(runes))
		currentLen += len(runes)
	}
	flush()

	return chunks
}

func pluralize(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}

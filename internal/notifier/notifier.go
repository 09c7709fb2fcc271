package notifier

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pfrederiksen/event-scout/internal/event"
)

// MaxPostLength is the character limit of a single post
const MaxPostLength = 280

// Notifier defines the interface for posting event notifications
type Notifier interface {
	// Notify posts notifications for the given events
	Notify(ctx context.Context, events []event.CategorizedCandidate) error
}

// Limit returns at most max events; a non-positive max keeps them all
func Limit(events []event.CategorizedCandidate, max int) []event.CategorizedCandidate {
	if max <= 0 || len(events) <= max {
		return events
	}
	return events[:max]
}

// formatPost formats an event as a single post
func formatPost(evt event.CategorizedCandidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📣 %s\n\n", evt.DisplayName())

	if !evt.Date.IsAbsent() {
		fmt.Fprintf(&b, "📅 %s", evt.Date.Label())
		if evt.Time != "" {
			fmt.Fprintf(&b, " %s", evt.Time)
		}
		b.WriteString("\n")
	}

	if evt.Location != "" {
		fmt.Fprintf(&b, "📍 %s\n", evt.Location)
	}

	if evt.URL != "" {
		fmt.Fprintf(&b, "\n🔗 %s\n", evt.URL)
	}

	fmt.Fprintf(&b, "\n#Seattle #%s", evt.Category)

	post := b.String()
	if utf8.RuneCountInString(post) > MaxPostLength {
		runes := []rune(post)
		post = string(runes[:MaxPostLength-3]) + "..."
	}
	return post
}

package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/event-scout/internal/provider"
)

const (
	UserAgent       = "event-scout/1.0 (github.com/pfrederiksen/event-scout)"
	Timeout         = 30 * time.Second
	MaxContentChars = 20000
)

var (
	isoDatePattern   = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})(?:T(\d{2}:\d{2}))?`)
	monthDatePattern = regexp.MustCompile(`(?i)\b(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{1,2}(?:,?\s+\d{4})?\b`)
	slashDatePattern = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`)
	whitespace       = regexp.MustCompile(`\s+`)
)

// Scraper extracts event fields by fetching and parsing pages itself.
// It satisfies provider.Extractor.
type Scraper struct {
	client *http.Client
}

// New creates a new Scraper instance
func New() *Scraper {
	return &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
	}
}

// Extract fetches pageURL and parses its event fields
func (s *Scraper) Extract(ctx context.Context, pageURL string) (provider.Fields, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return provider.Fields{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return provider.Fields{}, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return provider.Fields{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	parsed, err := s.parsePage(resp.Body, pageURL)
	if err != nil {
		return provider.Fields{}, err
	}
	return parsed.Normalize(pageURL)
}

// parsePage extracts a single-shape extraction response from HTML
func (s *Scraper) parsePage(r io.Reader, pageURL string) (*provider.ExtractResponse, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	out := &provider.ExtractResponse{URL: pageURL}

	// Strategy 1: schema.org Event in JSON-LD
	if ld, ok := findLDEvent(doc); ok {
		out.Title = ld.Name
		out.Date, out.Time = splitDateTime(ld.StartDate)
		out.Location = ld.locationName()
	}

	// Strategy 2: schema.org microdata
	scope := doc.Find(`[itemtype*="schema.org/Event"]`).First()
	if scope.Length() > 0 {
		if out.Title == "" {
			out.Title = text(scope.Find(`[itemprop="name"]`).First())
		}
		if out.Date == "" {
			start := scope.Find(`[itemprop="startDate"]`).First()
			out.Date, out.Time = splitDateTime(firstAttr(start, "content", "datetime"))
		}
		if out.Location == "" {
			loc := scope.Find(`[itemprop="location"]`).First()
			out.Location = firstNonEmpty(text(loc.Find(`[itemprop="name"]`).First()), text(loc))
		}
	}

	// Strategy 3: meta tags and generic markup
	if out.Title == "" {
		out.Title = firstNonEmpty(
			metaContent(doc, `meta[property="og:title"]`),
			text(doc.Find("h1").First()),
			text(doc.Find("title").First()),
		)
	}
	if out.Date == "" {
		start := firstNonEmpty(
			metaContent(doc, `meta[property="event:start_time"]`),
			firstAttr(doc.Find("time[datetime]").First(), "datetime"),
		)
		out.Date, out.Time = splitDateTime(start)
	}
	if out.Date == "" {
		out.Date = extractDate(out.Title)
	}
	if out.Location == "" {
		out.Location = firstNonEmpty(
			metaContent(doc, `meta[property="event:location"]`),
			text(doc.Find(".event-venue, .venue, .location").First()),
		)
	}

	doc.Find("script, style, noscript").Remove()
	out.Content = truncate(text(doc.Find("body")), MaxContentChars)

	return out, nil
}

type ldEvent struct {
	Type      any             `json:"@type"`
	Name      string          `json:"name"`
	StartDate string          `json:"startDate"`
	Location  json.RawMessage `json:"location"`
}

func (e ldEvent) isEvent() bool {
	switch t := e.Type.(type) {
	case string:
		return strings.HasSuffix(t, "Event")
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok && strings.HasSuffix(s, "Event") {
				return true
			}
		}
	}
	return false
}

func (e ldEvent) locationName() string {
	if len(e.Location) == 0 {
		return ""
	}
	var name string
	if err := json.Unmarshal(e.Location, &name); err == nil {
		return strings.TrimSpace(name)
	}
	var place struct {
		Name    string `json:"name"`
		Address any    `json:"address"`
	}
	if err := json.Unmarshal(e.Location, &place); err != nil {
		return ""
	}
	if place.Name != "" {
		return strings.TrimSpace(place.Name)
	}
	if addr, ok := place.Address.(string); ok {
		return strings.TrimSpace(addr)
	}
	return ""
}

// findLDEvent returns the first schema.org Event found in JSON-LD script blocks
func findLDEvent(doc *goquery.Document) (ldEvent, bool) {
	var found ldEvent
	ok := false

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		raw := []byte(sel.Text())

		var single ldEvent
		if err := json.Unmarshal(raw, &single); err == nil && single.isEvent() {
			found, ok = single, true
			return false
		}

		var many []ldEvent
		if err := json.Unmarshal(raw, &many); err == nil {
			for _, e := range many {
				if e.isEvent() {
					found, ok = e, true
					return false
				}
			}
		}
		return true
	})

	return found, ok
}

// splitDateTime splits an ISO timestamp into its date and HH:MM parts.
// Non-ISO input is returned unchanged as the date.
func splitDateTime(value string) (string, string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ""
	}
	if m := isoDatePattern.FindStringSubmatch(value); m != nil && strings.HasPrefix(value, m[0]) {
		return m[1], m[2]
	}
	return value, ""
}

// extractDate attempts to extract date text from a title
func extractDate(title string) string {
	if m := isoDatePattern.FindStringSubmatch(title); m != nil {
		return m[1]
	}
	if match := monthDatePattern.FindString(title); match != "" {
		return match
	}
	if match := slashDatePattern.FindString(title); match != "" {
		return match
	}
	return ""
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

func firstAttr(sel *goquery.Selection, names ...string) string {
	for _, name := range names {
		if v, ok := sel.Attr(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return text(sel)
}

func text(sel *goquery.Selection) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(sel.Text(), " "))
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

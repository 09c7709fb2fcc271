package event

import (
	"crypto/sha1"
	"fmt"
	"strings"
)

// RawCandidate is an event record as produced by the field extractor.
// Date is still the source text.
type RawCandidate struct {
	URL      string `json:"url"`
	Name     string `json:"name,omitempty"`
	Date     string `json:"date,omitempty"`
	Time     string `json:"time,omitempty"`
	Location string `json:"location,omitempty"`
	Content  string `json:"content,omitempty"`
}

// NormalizedCandidate is a deduplicated candidate with a typed Date.
type NormalizedCandidate struct {
	URL      string `json:"url"`
	Name     string `json:"name,omitempty"`
	Date     Date   `json:"date"`
	Time     string `json:"time,omitempty"`
	Location string `json:"location,omitempty"`
	Content  string `json:"content,omitempty"`
	Snippet  string `json:"snippet,omitempty"`
}

// ValidatedCandidate is a normalized candidate after the completeness check
type ValidatedCandidate struct {
	NormalizedCandidate
	Complete          bool `json:"complete"`
	FallbackAttempted bool `json:"fallback_attempted,omitempty"`
}

// CategorizedCandidate is the final record handed to the presentation layer
type CategorizedCandidate struct {
	ValidatedCandidate
	Category Category `json:"category"`
}

// Key returns the deduplication key of a raw candidate.
// Named candidates are keyed on (name, date); unnamed ones fall back to their URL
// so that unrelated pages without a title do not collapse into one.
// The date takes part in its parsed form, so text differing only in
// surrounding whitespace yields the same key.
func (c RawCandidate) Key() string {
	return identityKey(c.URL, c.Name, ParseDate(c.Date))
}

// Normalize converts a raw candidate into its normalized shape, parsing the date
func (c RawCandidate) Normalize() NormalizedCandidate {
	return NormalizedCandidate{
		URL:      c.URL,
		Name:     c.Name,
		Date:     ParseDate(c.Date),
		Time:     c.Time,
		Location: c.Location,
		Content:  c.Content,
	}
}

// IsComplete reports whether the candidate has a name and at least one of
// date, time or location.
func (c NormalizedCandidate) IsComplete() bool {
	if isBlank(c.Name) {
		return false
	}
	return !c.Date.IsAbsent() || !isBlank(c.Time) || !isBlank(c.Location)
}

// ID returns a stable identifier for the candidate, used for calendar UIDs
func (c NormalizedCandidate) ID() string {
	return identityKey(c.URL, c.Name, c.Date)
}

// DisplayName returns the candidate name, or a placeholder when it has none
func (c NormalizedCandidate) DisplayName() string {
	if isBlank(c.Name) {
		return "Untitled event"
	}
	return strings.TrimSpace(c.Name)
}

// GenerateKey creates a deterministic SHA1 key from the given parts
func GenerateKey(parts ...string) string {
	h := sha1.New()
	h.Write([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%x", h.Sum(nil))
}

func identityKey(url, name string, date Date) string {
	if isBlank(name) {
		return GenerateKey("url", url)
	}
	return GenerateKey("name", strings.TrimSpace(name), date.Kind.String(), date.Label())
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

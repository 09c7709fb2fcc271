package provider

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyResponse is returned when an extraction response carries no usable fields
var ErrEmptyResponse = errors.New("extraction response has no results")

// Searcher finds candidate pages for a query, restricted to the given sites
type Searcher interface {
	Search(ctx context.Context, query string, sites []string) (*SearchResponse, error)
}

// Extractor pulls structured fields out of a single page
type Extractor interface {
	Extract(ctx context.Context, url string) (Fields, error)
}

// SearchResult is one hit returned by a Searcher
type SearchResult struct {
	URL     string  `json:"url"`
	Title   string  `json:"title,omitempty"`
	Content string  `json:"content,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// SearchResponse is the result set of a search
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// URLs returns the non-empty result URLs in the order they were returned
func (r *SearchResponse) URLs() []string {
	if r == nil {
		return nil
	}
	urls := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		if res.URL != "" {
			urls = append(urls, res.URL)
		}
	}
	return urls
}

// Fields is the canonical extraction result every adapter produces
type Fields struct {
	URL      string `json:"url"`
	Name     string `json:"name,omitempty"`
	Date     string `json:"date,omitempty"`
	Time     string `json:"time,omitempty"`
	Location string `json:"location,omitempty"`
	Content  string `json:"content,omitempty"`
}

// IsEmpty reports whether no field other than URL was extracted
func (f Fields) IsEmpty() bool {
	return f.Name == "" && f.Date == "" && f.Time == "" && f.Location == "" && f.Content == ""
}

// ExtractResult is one entry of a batch-style extraction response
type ExtractResult struct {
	URL        string `json:"url"`
	RawContent string `json:"raw_content"`
	Title      string `json:"title,omitempty"`
	Date       string `json:"date,omitempty"`
	Time       string `json:"time,omitempty"`
	Location   string `json:"location,omitempty"`
}

// FailedResult is a URL the extraction service could not process
type FailedResult struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// ExtractResponse covers both response shapes seen from extraction services:
// the batch shape with Results, and the single shape with top-level fields.
type ExtractResponse struct {
	Results       []ExtractResult `json:"results,omitempty"`
	FailedResults []FailedResult  `json:"failed_results,omitempty"`

	URL       string `json:"url,omitempty"`
	Title     string `json:"title,omitempty"`
	Name      string `json:"name,omitempty"`
	Date      string `json:"date,omitempty"`
	DateStr   string `json:"date_str,omitempty"`
	EventDate string `json:"event_date,omitempty"`
	Time      string `json:"time,omitempty"`
	TimeStr   string `json:"time_str,omitempty"`
	EventTime string `json:"event_time,omitempty"`
	Location  string `json:"location,omitempty"`
	Venue     string `json:"venue,omitempty"`
	Address   string `json:"address,omitempty"`
	Content   string `json:"content,omitempty"`
}

// Normalize folds the response into Fields.
//
// Top-level fields are read first; gaps are then filled from the first batch
// result. requestURL is used when the response reports no URL of its own.
func (r *ExtractResponse) Normalize(requestURL string) (Fields, error) {
	if r == nil {
		return Fields{}, ErrEmptyResponse
	}

	f := Fields{
		URL:      firstNonEmpty(r.URL),
		Name:     firstNonEmpty(r.Title, r.Name),
		Date:     firstNonEmpty(r.Date, r.DateStr, r.EventDate),
		Time:     firstNonEmpty(r.Time, r.TimeStr, r.EventTime),
		Location: firstNonEmpty(r.Location, r.Venue, r.Address),
		Content:  firstNonEmpty(r.Content),
	}

	if len(r.Results) > 0 {
		first := r.Results[0]
		f.URL = firstNonEmpty(f.URL, first.URL)
		f.Name = firstNonEmpty(f.Name, first.Title)
		f.Date = firstNonEmpty(f.Date, first.Date)
		f.Time = firstNonEmpty(f.Time, first.Time)
		f.Location = firstNonEmpty(f.Location, first.Location)
		f.Content = firstNonEmpty(f.Content, first.RawContent)
	}

	if f.IsEmpty() && len(r.Results) == 0 {
		if len(r.FailedResults) > 0 {
			return Fields{}, errors.New(r.FailedResults[0].Error)
		}
		return Fields{}, ErrEmptyResponse
	}

	f.URL = firstNonEmpty(f.URL, requestURL)
	return f, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

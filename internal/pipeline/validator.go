package pipeline

import (
	"context"
	"strings"

	"github.com/pfrederiksen/event-scout/internal/event"
	"github.com/pfrederiksen/event-scout/internal/logger"
	"github.com/pfrederiksen/event-scout/internal/provider"
)

const (
	// DefaultMaxFallbackCalls caps enrichment calls for one run
	DefaultMaxFallbackCalls = 10

	// SnippetChars is the length of the snippet filled from enrichment content
	SnippetChars = 400
)

// ValidateOptions controls enrichment
type ValidateOptions struct {
	AttemptFallback  bool
	MaxFallbackCalls int
}

// DefaultValidateOptions returns fallback enabled with the default call budget
func DefaultValidateOptions() ValidateOptions {
	return ValidateOptions{
		AttemptFallback:  true,
		MaxFallbackCalls: DefaultMaxFallbackCalls,
	}
}

// ValidationMeta summarizes a validation pass
type ValidationMeta struct {
	TotalCandidates   int `json:"total_candidates"`
	FallbackCallsMade int `json:"fallback_calls_made"`
	IncompleteCount   int `json:"incomplete_count"`
}

// Validation is the output of Validator.Validate
type Validation struct {
	Validated         []event.ValidatedCandidate `json:"validated"`
	IncompleteIndices []int                      `json:"incomplete_indices"`
	Meta              ValidationMeta             `json:"meta"`
	Failures          []*Error                   `json:"failures,omitempty"`
}

// Validator checks candidate completeness and enriches incomplete candidates
// through an Extractor.
type Validator struct {
	extractor provider.Extractor
}

// NewValidator creates a validator. A nil extractor disables enrichment.
func NewValidator(extractor provider.Extractor) *Validator {
	return &Validator{extractor: extractor}
}

// Validate checks each candidate in input order.
//
// A candidate is complete when it has a name and at least one of date, time or
// location. Each incomplete candidate with a URL gets at most one enrichment call
// while the run-wide budget lasts; attempted calls count against the budget whether
// they succeed or fail. Returned fields only fill blanks, and the candidate URL is
// never replaced. Candidates still incomplete afterwards are kept and their indices
// reported.
func (v *Validator) Validate(ctx context.Context, candidates []event.NormalizedCandidate, opts ValidateOptions) *Validation {
	out := &Validation{
		Validated:         make([]event.ValidatedCandidate, 0, len(candidates)),
		IncompleteIndices: make([]int, 0),
	}
	calls := 0

	for idx, cand := range candidates {
		if cand.IsComplete() {
			out.Validated = append(out.Validated, event.ValidatedCandidate{
				NormalizedCandidate: cand,
				Complete:            true,
			})
			continue
		}

		attempted := false
		if opts.AttemptFallback && v.extractor != nil && strings.TrimSpace(cand.URL) != "" && calls < opts.MaxFallbackCalls {
			attempted = true
			calls++

			fields, err := v.enrich(ctx, cand.URL)
			if err != nil {
				out.Failures = append(out.Failures, newError(KindEnrichment, cand.URL, err))
				logger.Warn("enrichment failed", logger.Fields{
					"url":   cand.URL,
					"error": err.Error(),
				})
			} else {
				logger.Debug("enriched candidate", logger.Fields{"url": cand.URL})
				cand = MergeMissing(cand, fields)
			}
		}

		complete := cand.IsComplete()
		out.Validated = append(out.Validated, event.ValidatedCandidate{
			NormalizedCandidate: cand,
			Complete:            complete,
			FallbackAttempted:   attempted,
		})
		if !complete {
			out.IncompleteIndices = append(out.IncompleteIndices, idx)
		}
	}

	logger.AddCounter("validator.fallback_calls", int64(calls))
	out.Meta = ValidationMeta{
		TotalCandidates:   len(candidates),
		FallbackCallsMade: calls,
		IncompleteCount:   len(out.IncompleteIndices),
	}

	logger.Info("validated candidates", logger.Fields{
		"total":          out.Meta.TotalCandidates,
		"fallback_calls": out.Meta.FallbackCallsMade,
		"incomplete":     out.Meta.IncompleteCount,
	})
	return out
}

func (v *Validator) enrich(ctx context.Context, u string) (fields provider.Fields, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return v.extractor.Extract(ctx, u)
}

// PassThrough wraps candidates as validated without any enrichment.
// It is used when validation is switched off for a run.
func PassThrough(candidates []event.NormalizedCandidate) []event.ValidatedCandidate {
	out := make([]event.ValidatedCandidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, event.ValidatedCandidate{
			NormalizedCandidate: c,
			Complete:            c.IsComplete(),
		})
	}
	return out
}

// MergeMissing fills blank fields of c from f. Non-blank fields and the URL are
// left untouched.
func MergeMissing(c event.NormalizedCandidate, f provider.Fields) event.NormalizedCandidate {
	if isBlank(c.Name) && !isBlank(f.Name) {
		c.Name = strings.TrimSpace(f.Name)
	}
	if c.Date.IsAbsent() {
		c.Date = event.ParseDate(f.Date)
	}
	if isBlank(c.Time) && !isBlank(f.Time) {
		c.Time = strings.TrimSpace(f.Time)
	}
	if isBlank(c.Location) && !isBlank(f.Location) {
		c.Location = strings.TrimSpace(f.Location)
	}
	if isBlank(c.Content) && !isBlank(f.Content) {
		c.Content = f.Content
	}
	if isBlank(c.Snippet) && !isBlank(f.Content) {
		c.Snippet = snippet(f.Content, SnippetChars)
	}
	return c
}

func snippet(s string, n int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n])
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

package pipeline

import (
	"context"

	"github.com/pfrederiksen/event-scout/internal/event"
	"github.com/pfrederiksen/event-scout/internal/logger"
	"github.com/pfrederiksen/event-scout/internal/provider"
)

// FieldExtractor maps each URL to a raw candidate through an Extractor
type FieldExtractor struct {
	extractor provider.Extractor
}

// NewFieldExtractor creates a field extractor
func NewFieldExtractor(extractor provider.Extractor) *FieldExtractor {
	return &FieldExtractor{extractor: extractor}
}

// Extract calls the extractor once per URL, in order. A failing URL is logged,
// reported as a KindExtraction error, and skipped; the rest of the batch continues.
// The candidate URL is always the input URL, not the one the extractor reports.
func (x *FieldExtractor) Extract(ctx context.Context, urls []string) ([]event.RawCandidate, []*Error) {
	candidates := make([]event.RawCandidate, 0, len(urls))
	var failures []*Error

	for _, u := range urls {
		fields, err := x.extractOne(ctx, u)
		if err != nil {
			failures = append(failures, newError(KindExtraction, u, err))
			logger.Warn("extraction failed, skipping url", logger.Fields{
				"url":   u,
				"error": err.Error(),
			})
			logger.IncrCounter("extractor.failures")
			continue
		}

		candidates = append(candidates, event.RawCandidate{
			URL:      u,
			Name:     fields.Name,
			Date:     fields.Date,
			Time:     fields.Time,
			Location: fields.Location,
			Content:  fields.Content,
		})
	}

	logger.Info("extracted candidates", logger.Fields{
		"urls":       len(urls),
		"candidates": len(candidates),
		"failed":     len(failures),
	})
	return candidates, failures
}

// extractOne isolates a single extractor call, including panics from a
// misbehaving adapter, so one bad page cannot abort the batch.
func (x *FieldExtractor) extractOne(ctx context.Context, u string) (fields provider.Fields, err error) {
	if x.extractor == nil {
		return provider.Fields{}, errNoExtractor
	}
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return x.extractor.Extract(ctx, u)
}

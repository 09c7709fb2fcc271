package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/event-scout/internal/event"
	"github.com/pfrederiksen/event-scout/internal/logger"
	"github.com/pfrederiksen/event-scout/internal/provider"
)

// Options configures a Pipeline
type Options struct {
	Sites            []string
	MaxFallbackCalls int
}

// Result is the record one run builds up, stage by stage
type Result struct {
	RunID     string        `json:"run_id"`
	Query     string        `json:"query"`
	Validated bool          `json:"validated"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	URLs      []string      `json:"urls"`

	Raw        []event.RawCandidate        `json:"-"`
	Normalized []event.NormalizedCandidate `json:"-"`
	Validation *Validation                 `json:"validation,omitempty"`

	Events     []event.CategorizedCandidate                    `json:"events"`
	ByCategory map[event.Category][]event.CategorizedCandidate `json:"-"`
	ByDate     map[string][]event.CategorizedCandidate         `json:"-"`
	Report     string                                          `json:"report"`

	Warnings []*Error `json:"warnings,omitempty"`
}

// IncompleteCount returns how many final events are still missing required fields
func (r *Result) IncompleteCount() int {
	n := 0
	for _, e := range r.Events {
		if !e.Complete {
			n++
		}
	}
	return n
}

// Pipeline wires the stages to the external capabilities
type Pipeline struct {
	collector *Collector
	extractor *FieldExtractor
	validator *Validator
	opts      Options
	now       func() time.Time
}

// New creates a pipeline. The extractor serves both field extraction and
// validator enrichment.
func New(searcher provider.Searcher, extractor provider.Extractor, opts Options) *Pipeline {
	if opts.MaxFallbackCalls < 0 {
		opts.MaxFallbackCalls = 0
	}
	return &Pipeline{
		collector: NewCollector(searcher, opts.Sites),
		extractor: NewFieldExtractor(extractor),
		validator: NewValidator(extractor),
		opts:      opts,
		now:       time.Now,
	}
}

// Run executes one pass of the pipeline for query.
//
// Only a failed search aborts the run, returned as a KindRetrieval *Error.
// A run that finds nothing returns an empty Result and no error.
func (p *Pipeline) Run(ctx context.Context, query string, useValidator bool) (*Result, error) {
	started := p.now()
	res := &Result{
		RunID:     uuid.NewString(),
		Query:     query,
		Validated: useValidator,
		StartedAt: started.UTC(),
	}

	logger.Info("pipeline run started", logger.Fields{
		"run_id":    res.RunID,
		"query":     query,
		"validator": useValidator,
	})

	urls, err := p.collector.Collect(ctx, query)
	if err != nil {
		logger.IncrCounter("pipeline.runs_failed")
		logger.Error("pipeline run failed", logger.Fields{"run_id": res.RunID, "query": query}, err)
		return nil, err
	}
	res.URLs = urls

	raw, failures := p.extractor.Extract(ctx, urls)
	res.Raw = raw
	res.Warnings = append(res.Warnings, failures...)

	normalized, warnings := Normalize(raw)
	res.Normalized = normalized
	res.Warnings = append(res.Warnings, warnings...)

	var validated []event.ValidatedCandidate
	if useValidator {
		res.Validation = p.validator.Validate(ctx, normalized, ValidateOptions{
			AttemptFallback:  true,
			MaxFallbackCalls: p.opts.MaxFallbackCalls,
		})
		res.Warnings = append(res.Warnings, res.Validation.Failures...)
		validated = res.Validation.Validated
	} else {
		validated = PassThrough(normalized)
	}

	res.Events, res.ByCategory = Categorize(validated)
	res.ByDate = GroupByDate(res.Events)
	res.Report = Synthesize(res.ByDate)
	res.Duration = p.now().Sub(started)

	logger.IncrCounter("pipeline.runs")
	logger.SetGauge("pipeline.events_found", float64(len(res.Events)))
	logger.RecordTiming("pipeline.run", res.Duration)
	logger.Info("pipeline run finished", logger.Fields{
		"run_id":   res.RunID,
		"events":   len(res.Events),
		"warnings": len(res.Warnings),
		"duration": res.Duration.String(),
	})

	return res, nil
}

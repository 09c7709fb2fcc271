package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/pfrederiksen/event-scout/internal/pipeline"
)

const namespace = "event_scout"

type metrics struct {
	registry      *prometheus.Registry
	runsTotal     *prometheus.CounterVec
	fallbackCalls prometheus.Counter
	warnings      *prometheus.CounterVec
	eventsFound   prometheus.Gauge
	incomplete    prometheus.Gauge
	runDuration   prometheus.Summary
	lastSuccessTS prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{registry: prometheus.NewRegistry()}

	m.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Pipeline runs served, by outcome (ok, error, cached).",
	}, []string{"status"})
	m.fallbackCalls = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fallback_calls_total",
		Help:      "Enrichment calls made by the validator.",
	})
	m.warnings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "warnings_total",
		Help:      "Non-fatal pipeline failures, by kind.",
	}, []string{"kind"})
	m.eventsFound = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_found",
		Help:      "Events in the most recent successful run.",
	})
	m.incomplete = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_incomplete",
		Help:      "Events still missing a name or date in the most recent successful run.",
	})
	m.runDuration = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace:  namespace,
		Name:       "run_duration_seconds",
		Help:       "Duration of pipeline runs.",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	})
	m.lastSuccessTS = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the most recent successful run.",
	})

	m.registry.MustRegister(
		m.runsTotal,
		m.fallbackCalls,
		m.warnings,
		m.eventsFound,
		m.incomplete,
		m.runDuration,
		m.lastSuccessTS,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) observeRun(res *pipeline.Result) {
	m.runsTotal.WithLabelValues("ok").Inc()
	m.eventsFound.Set(float64(len(res.Events)))
	m.incomplete.Set(float64(res.IncompleteCount()))
	m.runDuration.Observe(res.Duration.Seconds())
	m.lastSuccessTS.Set(float64(res.StartedAt.Add(res.Duration).Unix()))
	if res.Validation != nil {
		m.fallbackCalls.Add(float64(res.Validation.Meta.FallbackCallsMade))
	}
	for _, w := range res.Warnings {
		m.warnings.WithLabelValues(string(w.Kind)).Inc()
	}
}

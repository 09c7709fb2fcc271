// Package server exposes pipeline runs over HTTP.
//
// Every data endpoint runs (or reuses from cache) the pipeline for the
// requested query, applies the presentation filters, and renders the result:
//
//	GET /events       JSON
//	GET /events.csv   CSV export
//	GET /events.ics   iCalendar export
//	GET /report       plain text report
//	GET /healthz      liveness
//	GET /metrics      Prometheus metrics
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/singleflight"

	"github.com/pfrederiksen/event-scout/internal/cache"
	"github.com/pfrederiksen/event-scout/internal/calendar"
	"github.com/pfrederiksen/event-scout/internal/event"
	"github.com/pfrederiksen/event-scout/internal/export"
	"github.com/pfrederiksen/event-scout/internal/filter"
	"github.com/pfrederiksen/event-scout/internal/logger"
	"github.com/pfrederiksen/event-scout/internal/pipeline"
)

// Runner executes one pipeline run
type Runner interface {
	Run(ctx context.Context, query string, useValidator bool) (*pipeline.Result, error)
}

// Options configures request defaults
type Options struct {
	// DefaultQuery is used when a request has no q parameter
	DefaultQuery string
	// UseValidator is used when a request has no validator parameter
	UseValidator bool
	// RunTimeout bounds a single pipeline run; zero means no bound
	RunTimeout time.Duration
}

type Server struct {
	runner  Runner
	cache   *cache.ResultCache
	opts    Options
	metrics *metrics
	group   singleflight.Group
	now     func() time.Time
}

// New creates a server. A nil cache disables memoization.
func New(runner Runner, rc *cache.ResultCache, opts Options) *Server {
	return &Server{
		runner:  runner,
		cache:   rc,
		opts:    opts,
		metrics: newMetrics(),
		now:     time.Now,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/events", s.listEvents)
	r.Get("/events.csv", s.exportCSV)
	r.Get("/events.ics", s.exportICS)
	r.Get("/report", s.report)
	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	return r
}

// Refresh runs the default query and stores the result in the cache.
// It backs the scheduled warm-up in serve.
func (s *Server) Refresh(ctx context.Context) error {
	key := cache.Key{Query: s.opts.DefaultQuery, UseValidator: s.opts.UseValidator}
	_, err := s.execute(ctx, key)
	return err
}

// request is the parsed form of the common query parameters
type request struct {
	key    cache.Key
	filter *filter.Filter
}

type eventsResponse struct {
	RunID      string                       `json:"run_id"`
	Query      string                       `json:"query"`
	Validated  bool                         `json:"validated"`
	Cached     bool                         `json:"cached"`
	StartedAt  time.Time                    `json:"started_at"`
	Filter     string                       `json:"filter"`
	Total      int                          `json:"total"`
	Count      int                          `json:"count"`
	Events     []event.CategorizedCandidate `json:"events"`
	Validation *pipeline.ValidationMeta     `json:"validation,omitempty"`
	Warnings   []*pipeline.Error            `json:"warnings,omitempty"`
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	req, res, cached, ok := s.load(w, r)
	if !ok {
		return
	}

	events := req.filter.Apply(res.Events)
	out := eventsResponse{
		RunID:     res.RunID,
		Query:     res.Query,
		Validated: res.Validated,
		Cached:    cached,
		StartedAt: res.StartedAt,
		Filter:    req.filter.String(),
		Total:     len(res.Events),
		Count:     len(events),
		Events:    events,
		Warnings:  res.Warnings,
	}
	if res.Validation != nil {
		meta := res.Validation.Meta
		out.Validation = &meta
	}
	writeJSON(w, out)
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	req, res, _, ok := s.load(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="events.csv"`)
	if err := export.WriteCSV(w, req.filter.Apply(res.Events)); err != nil {
		logger.Error("Failed to write CSV", logger.Fields{"run_id": res.RunID}, err)
	}
}

func (s *Server) exportICS(w http.ResponseWriter, r *http.Request) {
	req, res, _, ok := s.load(w, r)
	if !ok {
		return
	}

	events := req.filter.Apply(res.Events)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="events.ics"`)
	w.Header().Set("X-Event-Count", strconv.Itoa(calendar.Count(events)))
	_, _ = w.Write([]byte(calendar.Generate(events, s.now())))
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	req, res, _, ok := s.load(w, r)
	if !ok {
		return
	}

	text := res.Report
	if !req.filter.IsEmpty() {
		text = pipeline.Synthesize(pipeline.GroupByDate(req.filter.Apply(res.Events)))
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	size := 0
	if s.cache != nil {
		size = s.cache.Size()
	}
	writeJSON(w, map[string]any{"status": "ok", "cached_runs": size})
}

// load parses the request and obtains a result, reporting whether it came
// from the cache. When ok is false the error response is already written.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (request, *pipeline.Result, bool, bool) {
	req, err := s.parseRequest(r)
	if err != nil {
		writeJSONStatus(w, map[string]string{"error": err.Error()}, http.StatusBadRequest)
		return request{}, nil, false, false
	}

	if s.cache != nil {
		if res := s.cache.Get(req.key); res != nil {
			s.metrics.runsTotal.WithLabelValues("cached").Inc()
			return req, res, true, true
		}
	}

	res, err := s.execute(r.Context(), req.key)
	if err != nil {
		writeJSONStatus(w, map[string]string{"error": err.Error()}, http.StatusBadGateway)
		return request{}, nil, false, false
	}
	return req, res, false, true
}

// execute runs the pipeline once per key at a time and caches the result
func (s *Server) execute(ctx context.Context, key cache.Key) (*pipeline.Result, error) {
	v, err, _ := s.group.Do(key.String(), func() (any, error) {
		// The run outlives a cancelled caller so that others sharing it still get a result
		runCtx := context.WithoutCancel(ctx)
		if s.opts.RunTimeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(runCtx, s.opts.RunTimeout)
			defer cancel()
		}

		res, err := s.runner.Run(runCtx, key.Query, key.UseValidator)
		if err != nil {
			s.metrics.runsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		s.metrics.observeRun(res)
		if s.cache != nil {
			s.cache.Set(key, res)
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pipeline.Result), nil
}

func (s *Server) parseRequest(r *http.Request) (request, error) {
	q := r.URL.Query()
	req := request{
		key: cache.Key{
			Query:        strings.TrimSpace(q.Get("q")),
			UseValidator: s.opts.UseValidator,
		},
		filter: filter.NewFilter(),
	}
	if req.key.Query == "" {
		req.key.Query = s.opts.DefaultQuery
	}

	if v := q.Get("validator"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return request{}, fmt.Errorf("invalid validator value %q", v)
		}
		req.key.UseValidator = b
	}

	categories, err := filter.ParseCategories(q["category"])
	if err != nil {
		return request{}, err
	}
	req.filter.Categories = categories

	if req.filter.DateFrom, err = filter.ParseDay(q.Get("from")); err != nil {
		return request{}, err
	}
	if req.filter.DateTo, err = filter.ParseDay(q.Get("to")); err != nil {
		return request{}, err
	}
	if req.filter.DateFrom != nil && req.filter.DateTo != nil && req.filter.DateFrom.After(*req.filter.DateTo) {
		return request{}, errors.New("from must not be after to")
	}

	for _, t := range q["text"] {
		if strings.TrimSpace(t) != "" {
			req.filter.Text = append(req.filter.Text, t)
		}
	}

	return req, nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			return
		}
		logger.Info("HTTP request", logger.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		})
	})
}

func writeJSON(w http.ResponseWriter, value any) {
	writeJSONStatus(w, value, http.StatusOK)
}

func writeJSONStatus(w http.ResponseWriter, value any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

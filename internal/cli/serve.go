package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/event-scout/internal/cache"
	"github.com/pfrederiksen/event-scout/internal/config"
	"github.com/pfrederiksen/event-scout/internal/logger"
	"github.com/pfrederiksen/event-scout/internal/server"
)

const (
	runTimeout      = 2 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func newServeCmd(e *env, opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve events over HTTP",
		Long: `Serve the pipeline over HTTP. Results are cached per query and validator
setting for the configured TTL.

Endpoints: /events, /events.csv, /events.ics, /report, /healthz, /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, e, opts)
		},
	}

	cmd.Flags().StringVar(&opts.listen, "listen", config.DefaultListen, "HTTP listen address")
	cmd.Flags().StringVar(&opts.refresh, "refresh", "", "Cron schedule for warming the cache with the default query (e.g. '*/15 * * * *')")

	return cmd
}

func runServe(cmd *cobra.Command, e *env, opts *options) error {
	cfg, err := loadConfig(cmd, e, opts)
	if err != nil {
		return err
	}

	runner, err := e.newRunner(cfg)
	if err != nil {
		return err
	}

	rc := cache.New(cfg.CacheTTL)
	srv := server.New(runner, rc, server.Options{
		DefaultQuery: cfg.Query,
		UseValidator: cfg.UseValidator,
		RunTimeout:   runTimeout,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RefreshCron != "" {
		scheduler, err := scheduleRefresh(ctx, cfg.RefreshCron, srv, rc)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer func() { <-scheduler.Stop().Done() }()
	}

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", logger.Fields{
			"addr":    cfg.Listen,
			"query":   cfg.Query,
			"refresh": cfg.RefreshCron,
		})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("HTTP server shutting down", nil)
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// scheduleRefresh registers the cache warm-up on schedule
func scheduleRefresh(ctx context.Context, schedule string, srv *server.Server, rc *cache.ResultCache) (*cron.Cron, error) {
	scheduler := cron.New()
	_, err := scheduler.AddFunc(schedule, func() {
		removed := rc.CleanExpired()
		if err := srv.Refresh(ctx); err != nil {
			logger.Warn("Scheduled refresh failed", logger.Fields{"error": err.Error()})
			return
		}
		logger.Info("Scheduled refresh completed", logger.Fields{
			"expired_removed": removed,
			"cached_runs":     rc.Size(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	return scheduler, nil
}

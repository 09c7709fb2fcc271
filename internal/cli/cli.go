package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/event-scout/internal/config"
	"github.com/pfrederiksen/event-scout/internal/event"
	"github.com/pfrederiksen/event-scout/internal/filter"
	"github.com/pfrederiksen/event-scout/internal/logger"
	"github.com/pfrederiksen/event-scout/internal/notifier"
	"github.com/pfrederiksen/event-scout/internal/pipeline"
	"github.com/pfrederiksen/event-scout/internal/provider"
	"github.com/pfrederiksen/event-scout/internal/scraper"
	"github.com/pfrederiksen/event-scout/internal/server"
	"github.com/pfrederiksen/event-scout/internal/tavily"
	"github.com/pfrederiksen/event-scout/internal/telegram"
)

const (
	ExitSuccess     = 0
	ExitError       = 1
	ExitEventsFound = 2
)

const (
	NotifyTwitter  = "twitter"
	NotifyTelegram = "telegram"
	NotifyDryRun   = "dry-run"

	defaultMaxPosts = 5
)

// errEventsFound signals exit code 2 when --exit-code is set
var errEventsFound = errors.New("events found")

// env holds the process dependencies commands use
type env struct {
	stdout      io.Writer
	stderr      io.Writer
	newRunner   func(cfg *config.Config) (server.Runner, error)
	newNotifier func(kind string, out io.Writer) (notifier.Notifier, error)
	now         func() time.Time
}

func defaultEnv() *env {
	return &env{
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		newRunner:   buildRunner,
		newNotifier: buildNotifier,
		now:         time.Now,
	}
}

// options are the flag values shared by run and serve
type options struct {
	configPath  string
	query       string
	noValidator bool
	maxFallback int
	extractor   string
	verbose     bool

	format     string
	sortOrder  string
	categories []string
	from       string
	to         string
	dateRange  string
	text       []string
	notify     string
	maxPosts   int
	exitCode   bool

	listen  string
	refresh string
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultEnv())
}

func newRootCmd(e *env) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "event-scout",
		Short: "Find free local events and report them by date",
		Long: `A CLI tool that searches a fixed set of event listing sites, extracts
event details from each page, fills in missing details, categorizes the events,
and reports them grouped by date.

Running without a subcommand is the same as "event-scout run".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(cmd, e, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "event-scout.yaml", "Path to YAML config file (optional)")
	cmd.PersistentFlags().StringVarP(&opts.query, "query", "q", "", "Search query (default from config)")
	cmd.PersistentFlags().BoolVar(&opts.noValidator, "no-validator", false, "Skip enrichment of incomplete events")
	cmd.PersistentFlags().IntVar(&opts.maxFallback, "max-fallback-calls", pipeline.DefaultMaxFallbackCalls, "Maximum enrichment calls per run")
	cmd.PersistentFlags().StringVar(&opts.extractor, "extractor", config.ExtractorTavily, "Extraction capability: tavily or page")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")

	addRunFlags(cmd, opts)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and print the events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(cmd, e, opts)
		},
	}
	addRunFlags(runCmd, opts)

	cmd.AddCommand(runCmd, newServeCmd(e, opts))
	return cmd
}

func addRunFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVar(&opts.format, "format", string(FormatText), "Output format: text, json, csv, ics, or report")
	cmd.Flags().StringVar(&opts.sortOrder, "sort", string(SortByDate), "Sort order: date, name, or category")
	cmd.Flags().StringSliceVar(&opts.categories, "category", nil, "Only show these categories (repeatable)")
	cmd.Flags().StringVar(&opts.from, "from", "", "Only show events on or after this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.to, "to", "", "Only show events on or before this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.dateRange, "range", "", "Date range such as 'Mar 1-15', 'March', or '2025-03-01..2025-03-15'")
	cmd.Flags().StringSliceVar(&opts.text, "text", nil, "Only show events whose name or location contains this text (repeatable)")
	cmd.Flags().StringVar(&opts.notify, "notify", "", "Post events after the run: twitter, telegram, or dry-run")
	cmd.Flags().IntVar(&opts.maxPosts, "max-posts", defaultMaxPosts, "Maximum number of posts with --notify")
	cmd.Flags().BoolVar(&opts.exitCode, "exit-code", false, "Exit with code 2 when events are found")
}

// runEvents is the main command logic
func runEvents(cmd *cobra.Command, e *env, opts *options) error {
	format, err := ParseOutputFormat(opts.format)
	if err != nil {
		return err
	}
	sortOrder, err := ParseSortOrder(opts.sortOrder)
	if err != nil {
		return err
	}
	switch opts.notify {
	case "", NotifyTwitter, NotifyTelegram, NotifyDryRun:
	default:
		return fmt.Errorf("invalid notify target: %s (must be '%s', '%s', or '%s')", opts.notify, NotifyTwitter, NotifyTelegram, NotifyDryRun)
	}

	f, err := buildFilter(opts, e.now())
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, e, opts)
	if err != nil {
		return err
	}

	runner, err := e.newRunner(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.verbose {
		fmt.Fprintf(e.stderr, "Query: %s\n", cfg.Query)
		fmt.Fprintf(e.stderr, "Extractor: %s, validator: %t\n", cfg.Extractor, cfg.UseValidator)
	}

	res, err := runner.Run(ctx, cfg.Query, cfg.UseValidator)
	if err != nil {
		return fmt.Errorf("running pipeline: %w", err)
	}

	events := f.Apply(res.Events)
	sorted := make([]event.CategorizedCandidate, len(events))
	copy(sorted, events)
	sortEvents(sorted, sortOrder)

	result := newOutputResult(res, sorted, f.String(), e.now())
	if err := WriteOutput(e.stdout, result, format, opts.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if opts.notify != "" && len(sorted) > 0 {
		n, err := e.newNotifier(opts.notify, e.stdout)
		if err != nil {
			return fmt.Errorf("creating notifier: %w", err)
		}
		if err := n.Notify(ctx, notifier.Limit(sorted, opts.maxPosts)); err != nil {
			return fmt.Errorf("notifying: %w", err)
		}
	}

	if opts.verbose {
		writeMetrics(e.stderr)
	}

	if opts.exitCode && len(sorted) > 0 {
		return errEventsFound
	}
	return nil
}

// loadConfig loads the config file and environment, then applies flags that were set
func loadConfig(cmd *cobra.Command, e *env, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("query") {
		cfg.Query = opts.query
	}
	if opts.noValidator {
		cfg.UseValidator = false
	}
	if flags.Changed("max-fallback-calls") {
		cfg.MaxFallbackCalls = opts.maxFallback
	}
	if flags.Changed("extractor") {
		extractor := strings.ToLower(opts.extractor)
		if extractor != config.ExtractorTavily && extractor != config.ExtractorPage {
			return nil, fmt.Errorf("invalid extractor: %s (must be '%s' or '%s')", opts.extractor, config.ExtractorTavily, config.ExtractorPage)
		}
		cfg.Extractor = extractor
	}
	if f := flags.Lookup("listen"); f != nil && f.Changed {
		cfg.Listen = opts.listen
	}
	if f := flags.Lookup("refresh"); f != nil && f.Changed {
		cfg.RefreshCron = opts.refresh
	}
	cfg.Normalize()

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if opts.verbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, e.stderr))

	return cfg, nil
}

// buildFilter turns the filter flags into a Filter
func buildFilter(opts *options, now time.Time) (*filter.Filter, error) {
	f := filter.NewFilter()

	categories, err := filter.ParseCategories(opts.categories)
	if err != nil {
		return nil, err
	}
	f.Categories = categories

	if opts.dateRange != "" {
		if opts.from != "" || opts.to != "" {
			return nil, errors.New("--range cannot be combined with --from or --to")
		}
		f.DateFrom, f.DateTo, err = filter.ParseDateRange(opts.dateRange, now)
		if err != nil {
			return nil, err
		}
	} else {
		if f.DateFrom, err = filter.ParseDay(opts.from); err != nil {
			return nil, err
		}
		if f.DateTo, err = filter.ParseDay(opts.to); err != nil {
			return nil, err
		}
		if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
			return nil, errors.New("--from must not be after --to")
		}
	}

	for _, t := range opts.text {
		if strings.TrimSpace(t) != "" {
			f.Text = append(f.Text, t)
		}
	}
	return f, nil
}

// buildRunner wires the API client and the selected extractor into a pipeline
func buildRunner(cfg *config.Config) (server.Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := tavily.New(tavily.Config{
		APIKey:       cfg.TavilyAPIKey,
		BaseURL:      cfg.TavilyBaseURL,
		ExtractDepth: cfg.ExtractDepth,
		Timeout:      cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("creating search client: %w", err)
	}

	var extractor provider.Extractor = client
	if cfg.Extractor == config.ExtractorPage {
		extractor = scraper.New()
	}

	return pipeline.New(client, extractor, pipeline.Options{
		Sites:            cfg.Sites,
		MaxFallbackCalls: cfg.MaxFallbackCalls,
	}), nil
}

func buildNotifier(kind string, out io.Writer) (notifier.Notifier, error) {
	switch kind {
	case NotifyTwitter:
		n, err := notifier.NewTwitterNotifier()
		if err != nil {
			return nil, err
		}
		return n, nil
	case NotifyTelegram:
		n, err := telegram.NewClientFromEnv()
		if err != nil {
			return nil, err
		}
		return n, nil
	case NotifyDryRun:
		return notifier.NewDryRunNotifier(out), nil
	default:
		return nil, fmt.Errorf("unknown notifier: %s", kind)
	}
}

func writeMetrics(w io.Writer) {
	snapshot := logger.GetMetricsSnapshot()
	fmt.Fprintln(w, "Metrics:")
	if err := writeJSON(w, snapshot); err != nil {
		fmt.Fprintf(w, "  unavailable: %v\n", err)
	}
}

// exitCodeFor maps a command error to the process exit code
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errEventsFound):
		return ExitEventsFound
	default:
		return ExitError
	}
}

// Execute runs the CLI
func Execute() {
	err := NewRootCmd().Execute()
	code := exitCodeFor(err)
	if code == ExitError {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}

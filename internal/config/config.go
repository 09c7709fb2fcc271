// Package config loads the application configuration from defaults, an
// optional YAML file, a .env file and environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/event-scout/internal/pipeline"
	"github.com/pfrederiksen/event-scout/internal/tavily"
)

const (
	// DefaultQuery is searched when no query is given
	DefaultQuery = "Seattle free events"

	// ExtractorTavily uses the search API's extract endpoint
	ExtractorTavily = "tavily"
	// ExtractorPage fetches and parses pages directly
	ExtractorPage = "page"

	DefaultListen   = "127.0.0.1:8080"
	DefaultCacheTTL = 5 * time.Minute
	DefaultLogLevel = "info"
)

// envFiles are loaded into the environment before overrides are applied
var envFiles = []string{".env"}

// Config is the top-level application configuration.
type Config struct {
	// TavilyAPIKey authenticates search and extract calls. Usually set via TAVILY_API_KEY.
	TavilyAPIKey string `yaml:"tavily_api_key" json:"-"`

	// TavilyBaseURL overrides the API endpoint.
	TavilyBaseURL string `yaml:"tavily_base_url" json:"tavily_base_url"`

	// Sites is the list of listing sites the collector restricts search to.
	Sites []string `yaml:"sites" json:"sites"`

	// Query is the default search query.
	Query string `yaml:"query" json:"query"`

	// UseValidator enables the enrichment stage.
	UseValidator bool `yaml:"use_validator" json:"use_validator"`

	// MaxFallbackCalls caps enrichment calls per run.
	MaxFallbackCalls int `yaml:"max_fallback_calls" json:"max_fallback_calls"`

	// Extractor selects the extraction capability: "tavily" or "page".
	Extractor string `yaml:"extractor" json:"extractor"`

	// ExtractDepth is passed to the extract endpoint ("basic" or "advanced").
	ExtractDepth string `yaml:"extract_depth" json:"extract_depth"`

	// Timeout bounds each outbound HTTP call.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Listen is the HTTP listen address for serve.
	Listen string `yaml:"listen" json:"listen"`

	// CacheTTL is how long serve reuses a run result.
	CacheTTL time.Duration `yaml:"cache_ttl" json:"cache_ttl"`

	// RefreshCron is a cron schedule for warming the cache in serve. Empty disables it.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		TavilyBaseURL:    tavily.DefaultBaseURL,
		Sites:            append([]string(nil), pipeline.DefaultSites...),
		Query:            DefaultQuery,
		UseValidator:     true,
		MaxFallbackCalls: pipeline.DefaultMaxFallbackCalls,
		Extractor:        ExtractorTavily,
		ExtractDepth:     tavily.DefaultExtractDepth,
		Timeout:          tavily.Timeout,
		Listen:           DefaultListen,
		CacheTTL:         DefaultCacheTTL,
		LogLevel:         DefaultLogLevel,
	}
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.TavilyBaseURL == "" {
		c.TavilyBaseURL = tavily.DefaultBaseURL
	}
	if len(c.Sites) == 0 {
		c.Sites = append([]string(nil), pipeline.DefaultSites...)
	}
	if strings.TrimSpace(c.Query) == "" {
		c.Query = DefaultQuery
	}
	if c.MaxFallbackCalls < 0 {
		c.MaxFallbackCalls = 0
	}
	switch strings.ToLower(c.Extractor) {
	case ExtractorTavily, ExtractorPage:
		c.Extractor = strings.ToLower(c.Extractor)
	default:
		c.Extractor = ExtractorTavily
	}
	if c.ExtractDepth == "" {
		c.ExtractDepth = tavily.DefaultExtractDepth
	}
	if c.Timeout <= 0 {
		c.Timeout = tavily.Timeout
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate reports settings that cannot be fixed by defaults.
// Search always goes through the API, so the key is required for either extractor.
func (c *Config) Validate() error {
	if c.TavilyAPIKey == "" {
		return errors.New("TAVILY_API_KEY is not set")
	}
	return nil
}

// Load builds the configuration.
//
// Behavior:
//   - start from DefaultConfig
//   - if path is set and the file exists, unmarshal YAML over the defaults
//   - load .env into the process environment (missing file ignored)
//   - apply environment overrides
//   - normalize defaults
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// no file, keep defaults
		case err != nil:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	// Existing environment variables win over .env values
	_ = godotenv.Load(envFiles...)

	cfg.applyEnv()
	cfg.Normalize()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.TavilyAPIKey = getEnv("TAVILY_API_KEY", c.TavilyAPIKey)
	c.TavilyBaseURL = getEnv("TAVILY_BASE_URL", c.TavilyBaseURL)
	c.Listen = getEnv("EVENT_SCOUT_LISTEN", c.Listen)
	c.LogLevel = getEnv("EVENT_SCOUT_LOG_LEVEL", c.LogLevel)
	c.MaxFallbackCalls = getEnvInt("EVENT_SCOUT_MAX_FALLBACK_CALLS", c.MaxFallbackCalls)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pfrederiksen/event-scout/internal/pipeline"
)

// isolate clears the variables Load reads and points .env loading at dir
func isolate(t *testing.T, dir string) {
	t.Helper()
	for _, key := range []string{
		"TAVILY_API_KEY",
		"TAVILY_BASE_URL",
		"EVENT_SCOUT_LISTEN",
		"EVENT_SCOUT_LOG_LEVEL",
		"EVENT_SCOUT_MAX_FALLBACK_CALLS",
	} {
		t.Setenv(key, "")
	}

	prev := envFiles
	envFiles = []string{filepath.Join(dir, ".env")}
	t.Cleanup(func() { envFiles = prev })
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	isolate(t, dir)

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Query != DefaultQuery {
		t.Errorf("Query = %q, want %q", cfg.Query, DefaultQuery)
	}
	if !cfg.UseValidator {
		t.Error("UseValidator should default to true")
	}
	if cfg.MaxFallbackCalls != pipeline.DefaultMaxFallbackCalls {
		t.Errorf("MaxFallbackCalls = %d, want %d", cfg.MaxFallbackCalls, pipeline.DefaultMaxFallbackCalls)
	}
	if len(cfg.Sites) != len(pipeline.DefaultSites) {
		t.Errorf("got %d sites, want %d", len(cfg.Sites), len(pipeline.DefaultSites))
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want 5m", cfg.CacheTTL)
	}
	if cfg.Listen != DefaultListen {
		t.Errorf("Listen = %q, want %q", cfg.Listen, DefaultListen)
	}
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	isolate(t, dir)

	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, `
query: Seattle art walks
use_validator: false
max_fallback_calls: 3
extractor: PAGE
timeout: 5s
cache_ttl: 1m
refresh: "*/10 * * * *"
sites:
  - https://example.com/events
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Query != "Seattle art walks" {
		t.Errorf("Query = %q", cfg.Query)
	}
	if cfg.UseValidator {
		t.Error("UseValidator should be false")
	}
	if cfg.MaxFallbackCalls != 3 {
		t.Errorf("MaxFallbackCalls = %d, want 3", cfg.MaxFallbackCalls)
	}
	if cfg.Extractor != ExtractorPage {
		t.Errorf("Extractor = %q, want %q", cfg.Extractor, ExtractorPage)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
	if cfg.CacheTTL != time.Minute {
		t.Errorf("CacheTTL = %v, want 1m", cfg.CacheTTL)
	}
	if cfg.RefreshCron != "*/10 * * * *" {
		t.Errorf("RefreshCron = %q", cfg.RefreshCron)
	}
	if len(cfg.Sites) != 1 || cfg.Sites[0] != "https://example.com/events" {
		t.Errorf("Sites = %v", cfg.Sites)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	isolate(t, dir)

	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "query: [unclosed")

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	isolate(t, dir)

	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "max_fallback_calls: 3\nlisten: 0.0.0.0:9000\n")

	t.Setenv("TAVILY_API_KEY", "tvly-test")
	t.Setenv("EVENT_SCOUT_LISTEN", "127.0.0.1:9999")
	t.Setenv("EVENT_SCOUT_MAX_FALLBACK_CALLS", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TavilyAPIKey != "tvly-test" {
		t.Errorf("TavilyAPIKey = %q", cfg.TavilyAPIKey)
	}
	if cfg.Listen != "127.0.0.1:9999" {
		t.Errorf("Listen = %q, env should win over file", cfg.Listen)
	}
	if cfg.MaxFallbackCalls != 7 {
		t.Errorf("MaxFallbackCalls = %d, want 7", cfg.MaxFallbackCalls)
	}
}

func TestLoad_InvalidEnvIntKeepsValue(t *testing.T) {
	dir := t.TempDir()
	isolate(t, dir)
	t.Setenv("EVENT_SCOUT_MAX_FALLBACK_CALLS", "lots")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxFallbackCalls != pipeline.DefaultMaxFallbackCalls {
		t.Errorf("MaxFallbackCalls = %d, want default", cfg.MaxFallbackCalls)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	isolate(t, dir)
	writeFile(t, filepath.Join(dir, ".env"), "EVENT_SCOUT_LOG_LEVEL=debug\n")
	t.Cleanup(func() { os.Unsetenv("EVENT_SCOUT_LOG_LEVEL") })
	// godotenv only fills variables that are not already present
	os.Unsetenv("EVENT_SCOUT_LOG_LEVEL")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug from .env", cfg.LogLevel)
	}
}

func TestNormalize(t *testing.T) {
	cfg := &Config{MaxFallbackCalls: -2, Extractor: "browser"}
	cfg.Normalize()

	if cfg.MaxFallbackCalls != 0 {
		t.Errorf("MaxFallbackCalls = %d, want 0", cfg.MaxFallbackCalls)
	}
	if cfg.Extractor != ExtractorTavily {
		t.Errorf("Extractor = %q, want %q", cfg.Extractor, ExtractorTavily)
	}
	if cfg.Query != DefaultQuery || cfg.Listen != DefaultListen || cfg.LogLevel != DefaultLogLevel {
		t.Errorf("zero values not filled: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Error("missing key should fail validation")
	}

	cfg.Extractor = ExtractorPage
	if err := cfg.Validate(); err == nil {
		t.Error("page extractor still searches through the API and needs the key")
	}

	cfg.TavilyAPIKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

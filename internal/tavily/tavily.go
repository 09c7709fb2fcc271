// Package tavily implements the search and extraction capabilities against the Tavily API.
package tavily

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/pfrederiksen/event-scout/internal/provider"
)

const (
	DefaultBaseURL      = "https://api.tavily.com"
	DefaultExtractDepth = "advanced"
	DefaultMaxResults   = 10
	UserAgent           = "event-scout/1.0 (github.com/pfrederiksen/event-scout)"
	Timeout             = 30 * time.Second
)

// Config holds the client settings
type Config struct {
	APIKey       string
	BaseURL      string
	ExtractDepth string
	MaxResults   int
	Timeout      time.Duration
}

// Client talks to the Tavily search and extract endpoints.
// It satisfies both provider.Searcher and provider.Extractor.
type Client struct {
	http         *resty.Client
	extractDepth string
	maxResults   int
}

type searchRequest struct {
	Query          string   `json:"query"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	MaxResults     int      `json:"max_results,omitempty"`
}

type extractRequest struct {
	URLs         []string `json:"urls"`
	ExtractDepth string   `json:"extract_depth,omitempty"`
}

type apiError struct {
	Detail struct {
		Error string `json:"error"`
	} `json:"detail"`
}

// New creates a client from cfg, filling defaults for zero values
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("tavily API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ExtractDepth == "" {
		cfg.ExtractDepth = DefaultExtractDepth
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = Timeout
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", UserAgent)

	return &Client{
		http:         httpClient,
		extractDepth: cfg.ExtractDepth,
		maxResults:   cfg.MaxResults,
	}, nil
}

// Search runs a web search restricted to the domains of sites
func (c *Client) Search(ctx context.Context, query string, sites []string) (*provider.SearchResponse, error) {
	var out provider.SearchResponse
	var apiErr apiError

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(searchRequest{
			Query:          query,
			IncludeDomains: Domains(sites),
			MaxResults:     c.maxResults,
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/search")
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	if resp.IsError() {
		return nil, statusError(resp.StatusCode(), apiErr)
	}

	return &out, nil
}

// Extract fetches the page content for url and normalizes it into provider.Fields
func (c *Client) Extract(ctx context.Context, pageURL string) (provider.Fields, error) {
	var out provider.ExtractResponse
	var apiErr apiError

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(extractRequest{
			URLs:         []string{pageURL},
			ExtractDepth: c.extractDepth,
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/extract")
	if err != nil {
		return provider.Fields{}, fmt.Errorf("extracting: %w", err)
	}
	if resp.IsError() {
		return provider.Fields{}, statusError(resp.StatusCode(), apiErr)
	}

	fields, err := out.Normalize(pageURL)
	if err != nil {
		return provider.Fields{}, fmt.Errorf("extracting %s: %w", pageURL, err)
	}
	return fields, nil
}

// Domains reduces site URLs to the host names the search API filters on.
// Entries that are already bare hosts are kept as they are.
func Domains(sites []string) []string {
	domains := make([]string, 0, len(sites))
	seen := make(map[string]bool)
	for _, site := range sites {
		host := site
		if u, err := url.Parse(site); err == nil && u.Host != "" {
			host = u.Host
		}
		host = strings.TrimPrefix(strings.ToLower(host), "www.")
		if host == "" || seen[host] {
			continue
		}
		seen[host] = true
		domains = append(domains, host)
	}
	return domains
}

func statusError(code int, apiErr apiError) error {
	if apiErr.Detail.Error != "" {
		return fmt.Errorf("API returned status %d: %s", code, apiErr.Detail.Error)
	}
	return fmt.Errorf("API returned status %d", code)
}

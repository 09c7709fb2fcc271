package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/pfrederiksen/event-scout/internal/logger"
	"github.com/pfrederiksen/event-scout/internal/provider"
)

// ErrEmptyQuery is wrapped in a KindRetrieval error when a run is started
// without a query
var ErrEmptyQuery = errors.New("query is required")

// DefaultSites are the event listing sites searched when none are configured
var DefaultSites = []string{
	"https://www.greaterseattleonthecheap.com/this-week/",
	"https://www.seattlecenter.com/events/event-calendar",
	"https://www.events12.com/seattle/",
	"https://www.eventbrite.com/d/wa--seattle/free--events/",
	"https://everout.com/seattle/events/?category=community",
	"https://do206.com/free-events-seattle",
}

// Collector turns a query into candidate URLs using a Searcher
type Collector struct {
	searcher provider.Searcher
	sites    []string
}

// NewCollector creates a collector restricted to sites.
// An empty site list falls back to DefaultSites.
func NewCollector(searcher provider.Searcher, sites []string) *Collector {
	if len(sites) == 0 {
		sites = DefaultSites
	}
	return &Collector{
		searcher: searcher,
		sites:    append([]string(nil), sites...),
	}
}

// Collect returns the search result URLs in the order the searcher returned them.
// Duplicates are kept. Any searcher failure is a KindRetrieval error.
func (c *Collector) Collect(ctx context.Context, query string) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, newError(KindRetrieval, "", ErrEmptyQuery)
	}
	if c.searcher == nil {
		return nil, retrievalError("no search capability configured")
	}

	resp, err := c.searcher.Search(ctx, query, c.sites)
	if err != nil {
		return nil, newError(KindRetrieval, "", err)
	}

	urls := resp.URLs()
	logger.Info("collected source urls", logger.Fields{
		"query": query,
		"sites": len(c.sites),
		"urls":  len(urls),
	})
	return urls, nil
}

package notifier

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/dghubble/oauth1"

	"github.com/pfrederiksen/event-scout/internal/event"
	"github.com/pfrederiksen/event-scout/internal/logger"
)

// DefaultPostDelay is the pause between consecutive posts
const DefaultPostDelay = 2 * time.Second

// TwitterNotifier posts events to Twitter
type TwitterNotifier struct {
	client *twitter.Client
	// Delay between posts
	Delay time.Duration
}

// NewTwitterNotifier creates a new Twitter notifier using environment variables
// Required environment variables:
// - TWITTER_API_KEY
// - TWITTER_API_SECRET
// - TWITTER_ACCESS_TOKEN
// - TWITTER_ACCESS_SECRET
func NewTwitterNotifier() (*TwitterNotifier, error) {
	apiKey := os.Getenv("TWITTER_API_KEY")
	apiSecret := os.Getenv("TWITTER_API_SECRET")
	accessToken := os.Getenv("TWITTER_ACCESS_TOKEN")
	accessSecret := os.Getenv("TWITTER_ACCESS_SECRET")

	if apiKey == "" || apiSecret == "" || accessToken == "" || accessSecret == "" {
		return nil, fmt.Errorf("missing required Twitter credentials in environment variables")
	}

	config := oauth1.NewConfig(apiKey, apiSecret)
	token := oauth1.NewToken(accessToken, accessSecret)
	return NewTwitterNotifierWithClient(config.Client(oauth1.NoContext, token)), nil
}

// NewTwitterNotifierWithClient creates a notifier on an already authenticated HTTP client
func NewTwitterNotifierWithClient(httpClient *http.Client) *TwitterNotifier {
	return &TwitterNotifier{
		client: twitter.NewClient(httpClient),
		Delay:  DefaultPostDelay,
	}
}

// Notify posts one update per event, stopping at the first failure
func (n *TwitterNotifier) Notify(ctx context.Context, events []event.CategorizedCandidate) error {
	for i, evt := range events {
		post := formatPost(evt)

		tweet, _, err := n.client.Statuses.Update(post, nil)
		if err != nil {
			return fmt.Errorf("failed to post update for event %s: %w", evt.URL, err)
		}
		logger.Info("Posted event", logger.Fields{
			"url":      evt.URL,
			"tweet_id": tweet.IDStr,
		})

		// Rate limiting: wait between posts
		if i < len(events)-1 && n.Delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.Delay):
			}
		}
	}

	return nil
}

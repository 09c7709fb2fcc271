// Package notifier posts a run's events to external channels.
//
// Each event becomes one short post. The Twitter notifier authenticates with
// OAuth 1.0a credentials from the environment and spaces its posts out; the
// dry-run notifier writes the posts it would have made to a writer instead.
package notifier

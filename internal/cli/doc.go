// Package cli implements the command-line interface for event-scout.
//
// The cli package provides the Cobra-based CLI: the default run command searches
// the configured listing sites, runs the extraction pipeline, filters and sorts
// the events, and writes them as text, JSON, CSV, iCalendar, or the plain
// report. The serve command exposes the same pipeline over HTTP with a result
// cache and an optional scheduled warm-up.
package cli

// Package pipeline implements the event-scout run: collect source URLs, extract
// candidates, normalize, validate with bounded enrichment, categorize, and render a
// text report.
//
// Every stage is a plain function or a small struct over injected capabilities, reading
// one candidate shape and returning the next. The Pipeline driver owns the Result record
// for the duration of a run; nothing is shared between runs.
package pipeline

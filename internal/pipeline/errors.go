package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorKind classifies failures raised inside a run
type ErrorKind string

const (
	KindRetrieval  ErrorKind = "retrieval_failure"
	KindExtraction ErrorKind = "extraction_failure"
	KindDateParse  ErrorKind = "date_parse_failure"
	KindEnrichment ErrorKind = "enrichment_failure"
)

// Sentinels for errors.Is matching on kind
var (
	ErrRetrieval  = &Error{Kind: KindRetrieval}
	ErrExtraction = &Error{Kind: KindExtraction}
	ErrDateParse  = &Error{Kind: KindDateParse}
	ErrEnrichment = &Error{Kind: KindEnrichment}
)

// Error is a stage failure. Only KindRetrieval aborts a run; the other kinds
// are collected as warnings on the Result.
type Error struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.URL != "" {
		msg += " for " + e.URL
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// MarshalJSON renders the error for API and JSON output
func (e *Error) MarshalJSON() ([]byte, error) {
	out := struct {
		Kind  ErrorKind `json:"kind"`
		URL   string    `json:"url,omitempty"`
		Error string    `json:"error,omitempty"`
	}{Kind: e.Kind, URL: e.URL}
	if e.Err != nil {
		out.Error = e.Err.Error()
	}
	return json.Marshal(out)
}

var errNoExtractor = errors.New("no extraction capability configured")

func panicError(r any) error {
	return fmt.Errorf("extractor panic: %v", r)
}

func newError(kind ErrorKind, url string, err error) *Error {
	return &Error{Kind: kind, URL: url, Err: err}
}

func retrievalError(format string, args ...any) *Error {
	return &Error{Kind: KindRetrieval, Err: fmt.Errorf(format, args...)}
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pfrederiksen/event-scout/internal/event"
	"github.com/pfrederiksen/event-scout/internal/logger"
	"github.com/pfrederiksen/event-scout/internal/provider"
)

func TestValidate_CompleteCandidatesMakeNoCalls(t *testing.T) {
	fx := newFakeExtractor()
	v := NewValidator(fx)

	input := []event.NormalizedCandidate{
		normalized("Spring Parade", "2025-02-15", "", "", "https://a.example"),
		normalized("Open Mic", "", "7pm", "", "https://b.example"),
	}

	res := v.Validate(context.Background(), input, DefaultValidateOptions())
	if len(fx.calls) != 0 {
		t.Errorf("made %d calls for complete candidates", len(fx.calls))
	}
	if res.Meta.FallbackCallsMade != 0 || res.Meta.IncompleteCount != 0 || res.Meta.TotalCandidates != 2 {
		t.Errorf("Meta = %+v", res.Meta)
	}
	for _, c := range res.Validated {
		if !c.Complete || c.FallbackAttempted {
			t.Errorf("candidate %q: Complete=%v FallbackAttempted=%v", c.Name, c.Complete, c.FallbackAttempted)
		}
	}
}

func TestValidate_Idempotent(t *testing.T) {
	fx := newFakeExtractor()
	fx.fields["https://a.example"] = provider.Fields{Name: "Spring Parade", Date: "2025-02-15"}
	v := NewValidator(fx)

	first := v.Validate(context.Background(), []event.NormalizedCandidate{
		normalized("", "", "", "", "https://a.example"),
	}, DefaultValidateOptions())
	if len(fx.calls) != 1 {
		t.Fatalf("first pass made %d calls, want 1", len(fx.calls))
	}

	again := make([]event.NormalizedCandidate, 0, len(first.Validated))
	for _, c := range first.Validated {
		again = append(again, c.NormalizedCandidate)
	}

	second := v.Validate(context.Background(), again, DefaultValidateOptions())
	if len(fx.calls) != 1 {
		t.Errorf("re-validating complete output made %d extra calls", len(fx.calls)-1)
	}
	if second.Meta.FallbackCallsMade != 0 {
		t.Errorf("FallbackCallsMade = %d, want 0", second.Meta.FallbackCallsMade)
	}
}

func TestValidate_MissingOnlyMerge(t *testing.T) {
	fx := newFakeExtractor()
	fx.fields["https://a.example/event"] = provider.Fields{
		URL:      "https://canonical.example/other",
		Name:     "Spring Parade",
		Date:     "2025-02-15",
		Time:     "10am",
		Location: "Downtown",
		Content:  "Floats, bands and food trucks",
	}
	v := NewValidator(fx)

	res := v.Validate(context.Background(), []event.NormalizedCandidate{
		normalized("", "", "", "Space Needle", "https://a.example/event"),
	}, DefaultValidateOptions())

	got := res.Validated[0]
	if got.Location != "Space Needle" {
		t.Errorf("Location = %q, existing value must not be overwritten", got.Location)
	}
	if got.URL != "https://a.example/event" {
		t.Errorf("URL = %q, must be preserved", got.URL)
	}
	if got.Name != "Spring Parade" || got.Time != "10am" {
		t.Errorf("missing fields not filled: %+v", got)
	}
	if !got.Date.IsParsed() || got.Date.Label() != "2025-02-15" {
		t.Errorf("Date = %+v, want parsed 2025-02-15", got.Date)
	}
	if got.Snippet != "Floats, bands and food trucks" {
		t.Errorf("Snippet = %q", got.Snippet)
	}
	if !got.Complete || !got.FallbackAttempted {
		t.Errorf("Complete=%v FallbackAttempted=%v", got.Complete, got.FallbackAttempted)
	}
	if len(res.IncompleteIndices) != 0 {
		t.Errorf("IncompleteIndices = %v", res.IncompleteIndices)
	}
}

func TestMergeMissing_SnippetLength(t *testing.T) {
	long := strings.Repeat("a", SnippetChars+50)
	got := MergeMissing(event.NormalizedCandidate{}, provider.Fields{Content: long})
	if len([]rune(got.Snippet)) != SnippetChars {
		t.Errorf("snippet length = %d, want %d", len([]rune(got.Snippet)), SnippetChars)
	}
	if got.Content != long {
		t.Error("content should be filled when missing")
	}

	kept := MergeMissing(event.NormalizedCandidate{Content: "page text", Snippet: "short"}, provider.Fields{Content: long})
	if kept.Content != "page text" || kept.Snippet != "short" {
		t.Errorf("existing content overwritten: %+v", kept)
	}
}

func TestMergeMissing_KeepsExistingDate(t *testing.T) {
	c := normalized("Walk", "sometime in spring", "", "", "u")
	got := MergeMissing(c, provider.Fields{Date: "2025-04-01"})
	if got.Date.Kind != event.DateUnparsed || got.Date.Raw != "sometime in spring" {
		t.Errorf("Date = %+v, existing unparsed date must be kept", got.Date)
	}
}

func TestValidate_Budget(t *testing.T) {
	for _, budget := range []int{0, 1, 3, 10} {
		t.Run(fmt.Sprintf("budget %d", budget), func(t *testing.T) {
			fx := newFakeExtractor()
			input := make([]event.NormalizedCandidate, 0, 8)
			for i := 0; i < 8; i++ {
				u := fmt.Sprintf("https://e%d.example", i)
				input = append(input, normalized("", "", "", "", u))
				if i%2 == 0 {
					fx.errs[u] = errors.New("unreachable")
				}
			}

			res := NewValidator(fx).Validate(context.Background(), input, ValidateOptions{
				AttemptFallback:  true,
				MaxFallbackCalls: budget,
			})

			want := budget
			if want > len(input) {
				want = len(input)
			}
			if len(fx.calls) != want {
				t.Errorf("issued %d calls, want %d", len(fx.calls), want)
			}
			if res.Meta.FallbackCallsMade != len(fx.calls) {
				t.Errorf("FallbackCallsMade = %d, issued %d", res.Meta.FallbackCallsMade, len(fx.calls))
			}
			if len(res.Validated) != len(input) {
				t.Errorf("got %d validated, want all %d passed through", len(res.Validated), len(input))
			}
			if res.Meta.IncompleteCount != len(input) {
				t.Errorf("IncompleteCount = %d, want %d", res.Meta.IncompleteCount, len(input))
			}
			for i, c := range res.Validated {
				if c.FallbackAttempted != (i < want) {
					t.Errorf("candidate %d FallbackAttempted = %v", i, c.FallbackAttempted)
				}
			}
		})
	}
}

func TestValidate_FailedCallsCountAgainstBudget(t *testing.T) {
	fx := newFakeExtractor()
	fx.errs["https://a.example"] = errors.New("timeout")
	fx.fields["https://b.example"] = provider.Fields{Name: "Spring Parade", Location: "4th Ave"}

	res := NewValidator(fx).Validate(context.Background(), []event.NormalizedCandidate{
		normalized("", "", "", "", "https://a.example"),
		normalized("", "", "", "", "https://b.example"),
	}, ValidateOptions{AttemptFallback: true, MaxFallbackCalls: 1})

	if len(fx.calls) != 1 || fx.calls[0] != "https://a.example" {
		t.Errorf("calls = %v, want only the first candidate", fx.calls)
	}
	if len(res.Failures) != 1 || !errors.Is(res.Failures[0], ErrEnrichment) {
		t.Errorf("Failures = %v, want one enrichment failure", res.Failures)
	}
	if want := []int{0, 1}; len(res.IncompleteIndices) != 2 || res.IncompleteIndices[0] != want[0] || res.IncompleteIndices[1] != want[1] {
		t.Errorf("IncompleteIndices = %v, want %v", res.IncompleteIndices, want)
	}
}

func TestValidate_RecordsFallbackCounter(t *testing.T) {
	fallbackCalls := func() int64 {
		counters := logger.GetMetricsSnapshot()["counters"].(map[string]int64)
		return counters["validator.fallback_calls"]
	}
	before := fallbackCalls()

	fx := newFakeExtractor()
	fx.errs["https://a.example"] = errors.New("timeout")
	NewValidator(fx).Validate(context.Background(), []event.NormalizedCandidate{
		normalized("", "", "", "", "https://a.example"),
		normalized("", "", "", "", "https://b.example"),
		normalized("", "", "", "", "https://c.example"),
	}, ValidateOptions{AttemptFallback: true, MaxFallbackCalls: 2})

	if got := fallbackCalls() - before; got != 2 {
		t.Errorf("validator.fallback_calls grew by %d, want 2", got)
	}
}

func TestValidate_SkipsCandidatesWithoutURL(t *testing.T) {
	fx := newFakeExtractor()
	fx.fields["https://b.example"] = provider.Fields{Name: "Book Fair", Date: "2025-05-01"}

	res := NewValidator(fx).Validate(context.Background(), []event.NormalizedCandidate{
		normalized("Nameless", "", "", "", ""),
		normalized("", "", "", "", "https://b.example"),
	}, ValidateOptions{AttemptFallback: true, MaxFallbackCalls: 1})

	if len(fx.calls) != 1 || fx.calls[0] != "https://b.example" {
		t.Errorf("calls = %v, the url-less candidate must not consume the budget", fx.calls)
	}
	if len(res.IncompleteIndices) != 1 || res.IncompleteIndices[0] != 0 {
		t.Errorf("IncompleteIndices = %v, want [0]", res.IncompleteIndices)
	}
}

func TestValidate_FallbackDisabled(t *testing.T) {
	fx := newFakeExtractor()
	res := NewValidator(fx).Validate(context.Background(), []event.NormalizedCandidate{
		normalized("", "", "", "", "https://a.example"),
	}, ValidateOptions{AttemptFallback: false, MaxFallbackCalls: 10})

	if len(fx.calls) != 0 {
		t.Errorf("made %d calls with fallback disabled", len(fx.calls))
	}
	if res.Meta.IncompleteCount != 1 {
		t.Errorf("IncompleteCount = %d, want 1", res.Meta.IncompleteCount)
	}
}

func TestValidate_NilExtractor(t *testing.T) {
	res := NewValidator(nil).Validate(context.Background(), []event.NormalizedCandidate{
		normalized("", "", "", "", "https://a.example"),
	}, DefaultValidateOptions())

	if res.Meta.FallbackCallsMade != 0 || res.Meta.IncompleteCount != 1 {
		t.Errorf("Meta = %+v", res.Meta)
	}
}

func TestPassThrough(t *testing.T) {
	got := PassThrough([]event.NormalizedCandidate{
		normalized("Spring Parade", "2025-02-15", "", "", "u1"),
		normalized("", "", "", "", "u2"),
	})
	if len(got) != 2 || !got[0].Complete || got[1].Complete {
		t.Errorf("PassThrough() = %+v", got)
	}
	if got[0].FallbackAttempted || got[1].FallbackAttempted {
		t.Error("PassThrough must not mark candidates as attempted")
	}
}

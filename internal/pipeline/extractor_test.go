package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/pfrederiksen/event-scout/internal/provider"
)

func TestFieldExtractor_Extract(t *testing.T) {
	fx := newFakeExtractor()
	fx.fields["https://a.example"] = provider.Fields{
		URL:      "https://canonical.example/a",
		Name:     "Spring Parade",
		Date:     "2025-02-15",
		Location: "4th Ave",
		Content:  "Floats and bands",
	}
	fx.errs["https://bad.example"] = errors.New("timeout")
	fx.panics["https://panic.example"] = true
	fx.fields["https://b.example"] = provider.Fields{Name: "Modern Art Show"}

	x := NewFieldExtractor(fx)
	got, failures := x.Extract(context.Background(), []string{
		"https://a.example",
		"https://bad.example",
		"https://panic.example",
		"https://b.example",
	})

	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[0].URL != "https://a.example" {
		t.Errorf("URL = %q, want the input url", got[0].URL)
	}
	if got[0].Name != "Spring Parade" || got[0].Date != "2025-02-15" || got[0].Location != "4th Ave" {
		t.Errorf("unexpected candidate %+v", got[0])
	}
	if got[0].Content != "Floats and bands" {
		t.Errorf("Content = %q", got[0].Content)
	}
	if got[1].Name != "Modern Art Show" {
		t.Errorf("second candidate = %+v", got[1])
	}

	if len(failures) != 2 {
		t.Fatalf("got %d failures, want 2", len(failures))
	}
	for _, f := range failures {
		if !errors.Is(f, ErrExtraction) {
			t.Errorf("failure %v should be an extraction failure", f)
		}
	}
	if failures[0].URL != "https://bad.example" || failures[1].URL != "https://panic.example" {
		t.Errorf("failure urls = %q, %q", failures[0].URL, failures[1].URL)
	}
}

func TestFieldExtractor_NoExtractor(t *testing.T) {
	got, failures := NewFieldExtractor(nil).Extract(context.Background(), []string{"https://a.example"})
	if len(got) != 0 || len(failures) != 1 {
		t.Errorf("got %d candidates and %d failures", len(got), len(failures))
	}
}

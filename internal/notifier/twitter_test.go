package notifier

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/pfrederiksen/event-scout/internal/event"
)

func categorized(name, date, timeText, location, link string, category event.Category) event.CategorizedCandidate {
	var c event.CategorizedCandidate
	c.Name = name
	c.Date = event.ParseDate(date)
	c.Time = timeText
	c.Location = location
	c.URL = link
	c.Category = category
	return c
}

func TestFormatPost(t *testing.T) {
	tests := []struct {
		name     string
		event    event.CategorizedCandidate
		contains []string
		excludes []string
	}{
		{
			name:  "complete event",
			event: categorized("Jazz in the Park", "2025-03-01", "7pm", "Volunteer Park", "https://example.com/jazz", event.CategoryMusic),
			contains: []string{
				"Jazz in the Park",
				"2025-03-01 7pm",
				"Volunteer Park",
				"https://example.com/jazz",
				"#Music",
			},
		},
		{
			name:     "event without date",
			event:    categorized("Gallery Walk", "", "", "Pioneer Square", "https://example.com/art", event.CategoryArt),
			contains: []string{"Gallery Walk", "Pioneer Square", "#Art"},
			excludes: []string{"📅"},
		},
		{
			name:     "untitled event with unparsed date",
			event:    categorized("", "next Friday", "", "", "https://example.com/x", event.CategoryEvent),
			contains: []string{"Untitled event", "next Friday"},
			excludes: []string{"📍"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post := formatPost(tt.event)

			if n := utf8.RuneCountInString(post); n > MaxPostLength {
				t.Errorf("post length = %d, exceeds %d", n, MaxPostLength)
			}
			for _, s := range tt.contains {
				if !strings.Contains(post, s) {
					t.Errorf("post missing %q:\n%s", s, post)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(post, s) {
					t.Errorf("post should not contain %q:\n%s", s, post)
				}
			}
		})
	}
}

func TestFormatPost_Truncation(t *testing.T) {
	evt := categorized(strings.Repeat("Very long festival name ", 20), "2025-03-01", "", "", "", event.CategoryFestival)
	post := formatPost(evt)

	if n := utf8.RuneCountInString(post); n != MaxPostLength {
		t.Errorf("truncated post length = %d, want %d", n, MaxPostLength)
	}
	if !strings.HasSuffix(post, "...") {
		t.Error("truncated post should end with ellipsis")
	}
	if !utf8.ValidString(post) {
		t.Error("truncation produced invalid UTF-8")
	}
}

func TestLimit(t *testing.T) {
	events := []event.CategorizedCandidate{{}, {}, {}}

	tests := []struct {
		max  int
		want int
	}{
		{max: 0, want: 3},
		{max: -1, want: 3},
		{max: 2, want: 2},
		{max: 5, want: 3},
	}

	for _, tt := range tests {
		if got := len(Limit(events, tt.max)); got != tt.want {
			t.Errorf("Limit(%d) returned %d events, want %d", tt.max, got, tt.want)
		}
	}
}

func TestDryRunNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewDryRunNotifier(&buf)

	events := []event.CategorizedCandidate{
		categorized("Spring Parade", "2025-02-15", "", "", "https://example.com/a", event.CategoryFestival),
		categorized("Jazz Night", "", "", "", "https://example.com/b", event.CategoryMusic),
	}
	if err := n.Notify(context.Background(), events); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	out := buf.String()
	for _, s := range []string{"--- Post 1/2 ---", "--- Post 2/2 ---", "Spring Parade", "Jazz Night", "(Length: "} {
		if !strings.Contains(out, s) {
			t.Errorf("dry run output missing %q", s)
		}
	}
}

// rewriteTransport sends every request to a test server
type rewriteTransport struct {
	target *url.URL
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func TestTwitterNotifier(t *testing.T) {
	var mu sync.Mutex
	var posted []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/statuses/update.json") {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		mu.Lock()
		posted = append(posted, r.Form.Get("status"))
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 1, "id_str": "1", "text": "ok"}`))
	}))
	defer server.Close()

	target, _ := url.Parse(server.URL)
	n := NewTwitterNotifierWithClient(&http.Client{Transport: rewriteTransport{target: target}})
	n.Delay = 0

	events := []event.CategorizedCandidate{
		categorized("Spring Parade", "2025-02-15", "", "", "https://example.com/a", event.CategoryFestival),
		categorized("Jazz Night", "", "", "", "https://example.com/b", event.CategoryMusic),
	}
	if err := n.Notify(context.Background(), events); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	if len(posted) != 2 {
		t.Fatalf("posted %d updates, want 2", len(posted))
	}
	if !strings.Contains(posted[0], "Spring Parade") {
		t.Errorf("first post = %q", posted[0])
	}
}

func TestTwitterNotifier_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errors":[{"code":187,"message":"Status is a duplicate."}]}`))
	}))
	defer server.Close()

	target, _ := url.Parse(server.URL)
	n := NewTwitterNotifierWithClient(&http.Client{Transport: rewriteTransport{target: target}})
	n.Delay = 0

	err := n.Notify(context.Background(), []event.CategorizedCandidate{
		categorized("Spring Parade", "", "", "", "https://example.com/a", event.CategoryFestival),
	})
	if err == nil {
		t.Fatal("expected error from rejected post")
	}
	if !strings.Contains(err.Error(), "https://example.com/a") {
		t.Errorf("error should name the event, got %v", err)
	}
}

func TestNewTwitterNotifier_MissingCredentials(t *testing.T) {
	t.Setenv("TWITTER_API_KEY", "")
	t.Setenv("TWITTER_API_SECRET", "")
	t.Setenv("TWITTER_ACCESS_TOKEN", "")
	t.Setenv("TWITTER_ACCESS_SECRET", "")

	if _, err := NewTwitterNotifier(); err == nil {
		t.Error("expected error without credentials")
	}
}

package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/montenegronyc/scoreboard/internal/config"
)

func TestNew_RebuiltClientKeepsSpacing(t *testing.T) {
	const gap = 300 * time.Millisecond
	var (
		mu    sync.Mutex
		times []time.Time
	)
	values := valuesHandler(`[["","Alpha","Beta"],["","1","2"]]`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		times = append(times, time.Now())
		mu.Unlock()
		values(w, r)
	}))
	t.Cleanup(srv.Close)
	t.Setenv(testKeyEnv, "k")

	cfg := &config.Config{
		Source: config.SourceConfig{
			Type:               config.SourceSheets,
			BaseURL:            srv.URL,
			SheetID:            "sheet-1",
			Range:              "Sheet1!A:C",
			APIKeyEnv:          testKeyEnv,
			MinRequestInterval: gap,
			Timeout:            2 * time.Second,
		},
		Schema: config.SchemaConfig{HeaderRow: 1, ValueRow: 2, Columns: []string{"B", "C"}},
	}
	limits := NewLimiters()

	a, err := New(cfg, WithLimiters(limits))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if snap := a.Fetch(context.Background()); !snap.OK() {
		t.Fatalf("first fetch: %s", snap.Err)
	}

	// A reload that only touches the column layout still targets the same sheet.
	cfg.Schema.Columns = []string{"C"}
	b, err := New(cfg, WithLimiters(limits))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if snap := b.Fetch(context.Background()); !snap.OK() {
		t.Fatalf("second fetch: %s", snap.Err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(times) != 2 {
		t.Fatalf("requests: got %d, want 2", len(times))
	}
	// Small slack for timer granularity; without a shared limiter the gap is microseconds.
	if d := times[1].Sub(times[0]); d < gap-20*time.Millisecond {
		t.Errorf("gap between requests to the same sheet: %v, want at least %v", d, gap)
	}
}

func TestLimiters_PerSheet(t *testing.T) {
	l := NewLimiters()
	one := config.SourceConfig{BaseURL: "http://x", SheetID: "one", MinRequestInterval: time.Second}
	two := one
	two.SheetID = "two"

	if l.For(one) != l.For(one) {
		t.Error("same sheet got different limiters")
	}
	if l.For(one) == l.For(two) {
		t.Error("different sheets share a limiter")
	}
}

func TestLimiters_AppliesNewInterval(t *testing.T) {
	l := NewLimiters()
	cfg := config.SourceConfig{BaseURL: "http://x", SheetID: "s", MinRequestInterval: time.Second}
	lim := l.For(cfg)

	cfg.MinRequestInterval = 0
	if got := l.For(cfg); got != lim || got.Limit() != rate.Inf {
		t.Errorf("after disabling spacing: same=%v limit=%v", got == lim, got.Limit())
	}
	cfg.MinRequestInterval = 2 * time.Second
	if got := l.For(cfg).Limit(); got != rate.Every(2*time.Second) {
		t.Errorf("limit: got %v", got)
	}
}

package logging

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (s *recordingSink) Write(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestRouterFlushesOnClose(t *testing.T) {
	sink := &recordingSink{}
	fixed := time.Unix(100, 0)
	metrics := &Metrics{}
	cfg := DefaultConfig()
	cfg.Fields = map[string]any{"build": "test"}
	router, err := NewRouter(ClockFunc(func() time.Time { return fixed }), cfg, []NamedSink{{Name: "rec", Sink: sink}}, WithMetrics(metrics))
	if err != nil {
		t.Fatalf("unexpected router error: %v", err)
	}

	router.Publish(context.Background(), Event{Type: "test.info", Tick: 1, Severity: SeverityInfo})
	router.Publish(context.Background(), Event{Type: "test.debug", Tick: 2, Severity: SeverityDebug})
	router.Publish(context.Background(), Event{Tick: 3, Severity: SeverityError})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := router.Close(ctx); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	events := sink.snapshot()
	if len(events) != 1 {
		t.Fatalf("expected 1 event after severity filter, got %d", len(events))
	}
	if events[0].Type != "test.info" {
		t.Fatalf("expected test.info, got %s", events[0].Type)
	}
	if !events[0].Time.Equal(fixed) {
		t.Fatalf("expected router clock to stamp event, got %v", events[0].Time)
	}
	if events[0].Extra["build"] != "test" {
		t.Fatalf("expected global field to be attached, got %v", events[0].Extra)
	}
	if !sink.closed {
		t.Fatalf("expected sink to be closed")
	}
	if got := metrics.Snapshot()[metricEventsTotal]; got != 1 {
		t.Fatalf("expected events metric 1, got %d", got)
	}

	router.Publish(context.Background(), Event{Type: "late", Severity: SeverityError})
	if stats := router.Stats(); stats.EventsTotal != 1 {
		t.Fatalf("expected closed router to ignore events, stats=%+v", stats)
	}
}

func TestWithFieldsKeepsExistingExtra(t *testing.T) {
	var got Event
	pub := WithFields(PublisherFunc(func(_ context.Context, e Event) { got = e }), map[string]any{"session": "s1", "mode": "classic"})
	pub.Publish(context.Background(), Event{Type: "x", Extra: map[string]any{"mode": "zen"}})
	if got.Extra["session"] != "s1" {
		t.Fatalf("expected session field, got %v", got.Extra)
	}
	if got.Extra["mode"] != "zen" {
		t.Fatalf("expected event field to win, got %v", got.Extra["mode"])
	}
}

func TestParseSeverity(t *testing.T) {
	cases := map[string]Severity{"debug": SeverityDebug, "INFO": SeverityInfo, " warn ": SeverityWarn, "error": SeverityError}
	for raw, want := range cases {
		got, err := ParseSeverity(raw)
		if err != nil || got != want {
			t.Fatalf("expected %v for %q, got %v err=%v", want, raw, got, err)
		}
	}
	if _, err := ParseSeverity("loud"); err == nil {
		t.Fatalf("expected error for unknown severity")
	}
}

func TestParseSinks(t *testing.T) {
	got := ParseSinks(" console, ,json ")
	if len(got) != 2 || got[0] != "console" || got[1] != "json" {
		t.Fatalf("expected [console json], got %v", got)
	}
}

package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/relevex/internal/db"
	"github.com/kailas-cloud/relevex/internal/domain/experiment"
)

// --- Mocks ---

type mockStreams struct {
	mu      sync.Mutex
	entries []db.StreamEntry
	err     error
	block   chan struct{}
}

func (m *mockStreams) XAdd(ctx context.Context, e db.StreamEntry) (string, error) {
	if m.block != nil {
		<-m.block
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.entries = append(m.entries, e)
	return "1-0", nil
}

func (m *mockStreams) all() []db.StreamEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]db.StreamEntry(nil), m.entries...)
}

// --- Helpers ---

func newCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_analytics_events_total"}, []string{"status"})
}

func sampleEvent() experiment.Event {
	return experiment.Event{
		Event:         "search_relevance_test",
		EventCategory: "search",
		EventLabel:    "red dress",
		TestID:        "search_relevance_test_1",
		VariantID:     "hybrid",
		ResultCount:   3,
		Timestamp:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// --- Tests ---

func TestTrack_WritesEvent(t *testing.T) {
	store := &mockStreams{}
	counter := newCounter()
	s, err := New(store, Config{Stream: "events", MaxLen: 500}, zap.NewNop(), counter)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.Track(ctx, sampleEvent())
	cancel() // request finished; the write must still happen

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries := store.all()
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	e := entries[0]
	if e.Stream != "events" || e.MaxLen != 500 {
		t.Errorf("entry = %+v", e)
	}
	if e.Fields[0][0] != "id" || e.Fields[0][1] == "" {
		t.Errorf("missing generated id: %v", e.Fields)
	}
	if e.Fields[1] != [2]string{"event", "search_relevance_test"} {
		t.Errorf("event field = %v", e.Fields[1])
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(e.Fields[2][1]), &decoded); err != nil {
		t.Fatalf("data is not JSON: %v", err)
	}
	if decoded["ab_test_id"] != "search_relevance_test_1" || decoded["event_label"] != "red dress" {
		t.Errorf("data = %v", decoded)
	}
	if decoded["id"] != e.Fields[0][1] {
		t.Errorf("data id %v != field id %v", decoded["id"], e.Fields[0][1])
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("written")); got != 1 {
		t.Errorf("written = %v", got)
	}
}

func TestTrack_WriteFailureLogged(t *testing.T) {
	store := &mockStreams{err: &db.Error{Op: db.OpXAdd, Err: errors.New("READONLY")}}
	counter := newCounter()
	core, logs := observer.New(zap.WarnLevel)
	s, err := New(store, Config{}, zap.New(core), counter)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s.Track(context.Background(), sampleEvent())
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if logs.FilterMessage("analytics write failed").Len() != 1 {
		t.Errorf("expected a warning, got %v", logs.All())
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed = %v", got)
	}
}

func TestTrack_DropsWhenSaturated(t *testing.T) {
	store := &mockStreams{block: make(chan struct{})}
	counter := newCounter()
	s, err := New(store, Config{PoolSize: 1}, zap.NewNop(), counter)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s.Track(context.Background(), sampleEvent())
	// Wait for the single worker to pick up the first event.
	deadline := time.Now().Add(time.Second)
	for s.pool.Running() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	s.Track(context.Background(), sampleEvent())

	close(store.block)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if got := testutil.ToFloat64(counter.WithLabelValues("dropped")); got != 1 {
		t.Errorf("dropped = %v", got)
	}
	if len(store.all()) != 1 {
		t.Errorf("entries = %d", len(store.all()))
	}
}

func TestNew_Defaults(t *testing.T) {
	s, err := New(&mockStreams{}, Config{}, zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = s.Close() }()

	if s.cfg.Stream != DefaultStream || s.cfg.MaxLen != DefaultMaxLen || s.cfg.PoolSize != DefaultPoolSize {
		t.Errorf("cfg = %+v", s.cfg)
	}
	if s.pool.Cap() != DefaultPoolSize {
		t.Errorf("pool cap = %d", s.pool.Cap())
	}
}

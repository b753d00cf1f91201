// Package analytics records AB test search events to a Redis stream.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/relevex/internal/db"
	"github.com/kailas-cloud/relevex/internal/domain"
	"github.com/kailas-cloud/relevex/internal/domain/experiment"
)

// Sink defaults.
const (
	DefaultStream       = "relevex:analytics"
	DefaultMaxLen       = 100000
	DefaultPoolSize     = 8
	DefaultWriteTimeout = 2 * time.Second
	closeTimeout        = 5 * time.Second
)

// streamStore is the consumer interface for stream writes (ISP).
type streamStore interface {
	XAdd(ctx context.Context, e db.StreamEntry) (string, error)
}

// Config holds sink settings. Zero values use the defaults.
type Config struct {
	Stream       string
	MaxLen       int64
	PoolSize     int
	WriteTimeout time.Duration
}

// Sink writes events from a bounded worker pool. Track never blocks the
// caller: when every worker is busy the event is dropped and counted.
type Sink struct {
	store       streamStore
	pool        *ants.Pool
	cfg         Config
	logger      *zap.Logger
	eventsTotal *prometheus.CounterVec
}

// New creates a sink and its worker pool.
// eventsTotal is a counter vec with label "status" ("written"/"dropped"/"failed"), passed explicitly.
func New(store streamStore, cfg Config, logger *zap.Logger, eventsTotal *prometheus.CounterVec) (*Sink, error) {
	if cfg.Stream == "" {
		cfg.Stream = DefaultStream
	}
	if cfg.MaxLen <= 0 {
		cfg.MaxLen = DefaultMaxLen
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DefaultPoolSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}

	pool, err := ants.NewPool(cfg.PoolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create analytics pool: %w", err)
	}
	return &Sink{store: store, pool: pool, cfg: cfg, logger: logger, eventsTotal: eventsTotal}, nil
}

// Track submits ev for writing. The write outlives the request context.
func (s *Sink) Track(ctx context.Context, ev experiment.Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	ctx = context.WithoutCancel(ctx)

	err := s.pool.Submit(func() { s.write(ctx, ev) })
	if err != nil {
		s.inc("dropped")
		s.logger.Warn("analytics event dropped",
			zap.String("event_id", ev.ID),
			zap.String("test_id", ev.TestID),
			zap.Error(fmt.Errorf("%w: %w", domain.ErrAnalytics, err)),
		)
	}
}

func (s *Sink) write(ctx context.Context, ev experiment.Event) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()

	data, err := json.Marshal(ev)
	if err == nil {
		_, err = s.store.XAdd(ctx, db.StreamEntry{
			Stream: s.cfg.Stream,
			MaxLen: s.cfg.MaxLen,
			Fields: [][2]string{
				{"id", ev.ID},
				{"event", ev.Event},
				{"data", string(data)},
			},
		})
	}
	if err != nil {
		s.inc("failed")
		s.logger.Warn("analytics write failed",
			zap.String("event_id", ev.ID),
			zap.String("stream", s.cfg.Stream),
			zap.Error(fmt.Errorf("%w: %w", domain.ErrAnalytics, err)),
		)
		return
	}
	s.inc("written")
}

// Close waits for in-flight writes and releases the pool.
func (s *Sink) Close() error {
	if err := s.pool.ReleaseTimeout(closeTimeout); err != nil {
		return fmt.Errorf("release analytics pool: %w", err)
	}
	return nil
}

func (s *Sink) inc(status string) {
	if s.eventsTotal != nil {
		s.eventsTotal.WithLabelValues(status).Inc()
	}
}

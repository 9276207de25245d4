// Package worker drains the audit outbox into a message broker.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	audit "tokenvault/pkg/platform/audit"
)

const (
	defaultInterval  = time.Second
	defaultBatchSize = 100
)

// Outbox is the pending side of an outbox-backed audit store.
type Outbox interface {
	FetchPending(ctx context.Context, limit int) ([]audit.OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Producer delivers one message. Implementations must be synchronous so a
// nil error means the broker acknowledged it.
type Producer interface {
	Publish(ctx context.Context, key string, value []byte, headers map[string]string) error
}

// Worker polls the outbox and publishes entries in order. Delivery is at
// least once: an entry published but not yet marked is sent again after a
// crash, so consumers dedupe on the payload id.
type Worker struct {
	outbox    Outbox
	producer  Producer
	logger    *slog.Logger
	metrics   *Metrics
	interval  time.Duration
	batchSize int
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func New(outbox Outbox, producer Producer, opts ...Option) *Worker {
	w := &Worker{
		outbox:    outbox,
		producer:  producer,
		logger:    slog.New(slog.DiscardHandler),
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run drains the outbox every interval until ctx is cancelled. Publish
// failures are logged and retried on the next tick.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if _, err := w.Drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.WarnContext(ctx, "outbox drain failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Drain publishes one batch. Entries are published in order and the batch
// stops at the first failure so per-key ordering holds. It returns the number
// of entries marked published.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	entries, err := w.outbox.FetchPending(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	published := make([]uuid.UUID, 0, len(entries))
	var publishErr error
	for _, e := range entries {
		headers := map[string]string{
			"event_type":     e.EventType,
			"aggregate_type": e.AggregateType,
		}
		if err := w.producer.Publish(ctx, e.AggregateID, e.Payload, headers); err != nil {
			publishErr = err
			if w.metrics != nil {
				w.metrics.PublishFailures.Inc()
			}
			break
		}
		published = append(published, e.ID)
	}

	if len(published) > 0 {
		if err := w.outbox.MarkPublished(ctx, published, time.Now()); err != nil {
			return 0, err
		}
		if w.metrics != nil {
			w.metrics.Published.Add(float64(len(published)))
		}
		w.logger.DebugContext(ctx, "outbox entries published", "count", len(published))
	}
	return len(published), publishErr
}

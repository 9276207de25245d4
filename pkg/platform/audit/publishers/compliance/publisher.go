// Package compliance provides a fail-closed audit publisher.
//
// Events are written to the audit store and the caller blocks until the write
// succeeds. If the write fails an error is returned and the calling operation
// MUST fail. When the store is outbox-backed and the context carries a
// transaction, the event commits or rolls back with the business change.
// When the context carries an audit.Buffer the write is queued on it and
// happens when the owner of the buffer flushes it.
package compliance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	audit "tokenvault/pkg/platform/audit"
	"tokenvault/pkg/requestcontext"
)

var (
	ErrMissingAction  = errors.New("audit event requires Action")
	ErrMissingSubject = errors.New("audit event requires Subject")
)

// Publisher emits audit events with fail-closed semantics.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// New creates a compliance publisher.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit writes event, filling the timestamp, category and request metadata
// from ctx when they are unset. With an audit.Buffer on ctx the write is
// deferred to the buffer's Flush.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Action == "" {
		return ErrMissingAction
	}
	if event.Subject == "" {
		return ErrMissingSubject
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.Client == "" {
		event.Client = audit.DescribeClient(requestcontext.UserAgent(ctx))
	}

	if buf, ok := audit.BufferFrom(ctx); ok {
		buf.Defer(func(ctx context.Context) error {
			return p.persist(ctx, event)
		})
		return nil
	}
	return p.persist(ctx, event)
}

func (p *Publisher) persist(ctx context.Context, event audit.Event) error {
	start := time.Now()
	if err := p.store.Append(ctx, event); err != nil {
		if p.metrics != nil {
			p.metrics.IncPersistFailures()
		}
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "CRITICAL: audit persistence failed",
				"action", event.Action,
				"subject", event.Subject,
				"request_id", event.RequestID,
				"error", err,
			)
		}
		return err
	}

	if p.metrics != nil {
		p.metrics.ObservePersistDuration(time.Since(start).Seconds())
		p.metrics.IncEventsEmitted(event.Category)
	}
	return nil
}

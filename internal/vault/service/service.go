package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tokenvault/internal/token"
	"tokenvault/internal/vault/address"
	"tokenvault/internal/vault/metrics"
	"tokenvault/internal/vault/models"
	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
	audit "tokenvault/pkg/platform/audit"
	"tokenvault/pkg/requestcontext"
)

// Store persists pool and access records.
type Store interface {
	CreatePool(ctx context.Context, pool *models.PoolRecord) error
	FindPool(ctx context.Context, asset id.Address) (*models.PoolRecord, error)
	CreateAccess(ctx context.Context, record *models.AccessRecord) error
	FindAccess(ctx context.Context, address id.Address) (*models.AccessRecord, error)
	UpdateOwed(ctx context.Context, address id.Address, owed uint64, updatedAt time.Time) error
}

// Ledger is the read and account-creation side of the token ledger.
type Ledger interface {
	Open(ctx context.Context, req token.OpenRequest) (*token.Holder, error)
	Holder(ctx context.Context, addr id.Address) (*token.Holder, error)
}

// Transferer is the trusted transfer primitive.
type Transferer interface {
	Transfer(ctx context.Context, req token.TransferRequest) error
}

// VaultTx runs fn as one unit of work with a single writer per key. fn must
// do all of its reads and writes through the store and transferer it is
// given; nothing is visible to other callers unless fn returns nil.
type VaultTx interface {
	RunInTx(ctx context.Context, key id.Address, fn func(ctx context.Context, store Store, tokens Transferer) error) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service implements the vault lifecycle, deposit and withdrawal
// operations. Every address a caller supplies is re-derived and compared
// before it is trusted.
type Service struct {
	resolver       *address.Resolver
	store          Store
	ledger         Ledger
	tx             VaultTx
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service. store serves reads outside transactions.
func New(resolver *address.Resolver, store Store, ledger Ledger, tx VaultTx, opts ...Option) (*Service, error) {
	if resolver == nil {
		return nil, errors.New("address resolver is required")
	}
	if store == nil {
		return nil, errors.New("vault store is required")
	}
	if ledger == nil {
		return nil, errors.New("token ledger is required")
	}
	if tx == nil {
		return nil, errors.New("vault transaction runner is required")
	}
	s := &Service{
		resolver: resolver,
		store:    store,
		ledger:   ledger,
		tx:       tx,
		logger:   slog.New(slog.DiscardHandler),
		tracer:   otel.Tracer("tokenvault/internal/vault/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Resolver exposes the address resolver for read-only derivation endpoints.
func (s *Service) Resolver() *address.Resolver {
	return s.resolver
}

func (s *Service) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "vault."+op, trace.WithAttributes(attrs...))
}

// finish records the outcome on the span, in metrics and in the log.
// Rejections are client errors and log at warn; everything else at error.
func (s *Service) finish(ctx context.Context, span trace.Span, op string, start time.Time, err error, logArgs ...any) {
	defer span.End()
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		logArgs = append(logArgs, "request_id", requestID)
	}
	logArgs = append(logArgs, "operation", op)
	if err == nil {
		span.SetStatus(codes.Ok, "")
		if s.metrics != nil {
			s.metrics.Observe(op, metrics.OutcomeSuccess, "", start)
		}
		return
	}

	code, rejected := classify(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, code)
	outcome := metrics.OutcomeError
	if rejected {
		outcome = metrics.OutcomeRejected
	}
	if s.metrics != nil {
		s.metrics.Observe(op, outcome, code, start)
	}
	logArgs = append(logArgs, "code", code, "error", err)
	if rejected {
		s.logger.WarnContext(ctx, "vault operation rejected", logArgs...)
		return
	}
	s.logger.ErrorContext(ctx, "vault operation failed", logArgs...)
}

// classify returns the error code and whether the failure is a rejection of
// the request rather than an infrastructure fault.
func classify(err error) (string, bool) {
	if te, ok := token.AsError(err); ok {
		return string(dErrors.CodeTransferFailed) + ":" + string(te.Kind), true
	}
	code := dErrors.CodeOf(err)
	switch code {
	case dErrors.CodeInternal, dErrors.CodeUnavailable:
		return string(code), false
	case dErrors.CodeTimeout:
		return string(code), errors.Is(err, context.Canceled)
	default:
		return string(code), true
	}
}

func (s *Service) emit(ctx context.Context, event audit.AuditEvent, e audit.Event) error {
	if s.auditPublisher == nil {
		return nil
	}
	e.Action = string(event)
	if err := s.auditPublisher.Emit(ctx, e); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

func addrAttr(key string, a id.Address) attribute.KeyValue {
	return attribute.String(key, a.String())
}

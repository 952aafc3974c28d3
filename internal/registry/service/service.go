package service

import (
	"context"
	"errors"
	"log/slog"
	"math/bits"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"skillchain/internal/registry/metrics"
	"skillchain/internal/registry/models"
	"skillchain/internal/registry/ports"
	dErrors "skillchain/pkg/domain-errors"
	"skillchain/pkg/platform/audit"
	"skillchain/pkg/platform/middleware/metadata"
	"skillchain/pkg/platform/sentinel"
	"skillchain/pkg/requestcontext"
)

type (
	Store            = ports.Store
	StoreTx          = ports.StoreTx
	CertificateCache = ports.CertificateCache
	AuditPublisher   = ports.AuditPublisher
)

const tracerName = "skillchain/registry"

const (
	opInitialize       = "initialize"
	opAddIssuer        = "add_verified_issuer"
	opRemoveIssuer     = "remove_issuer"
	opUpdateReputation = "update_issuer_reputation"
	opIssue            = "issue_certificate"
	opBatchIssue       = "batch_issue_certificates"
	opGetCertificate   = "get_certificate"
	opListByOwner      = "list_certificates_by_owner"
)

// Service is the registry facade. Every mutation runs inside one store
// transaction; audit events, cache writes and metrics happen after commit.
type Service struct {
	store          Store
	tx             StoreTx
	cache          CertificateCache
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer

	certLoads singleflight.Group
	ledgerID  atomic.Pointer[string]
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithCache puts a read-through cache in front of GetCertificate.
func WithCache(cache CertificateCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// New constructs the registry service. store serves reads; tx scopes every
// mutation.
func New(store Store, tx StoreTx, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	s := &Service{
		store:  store,
		tx:     tx,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ledger returns the id scoping cache entries, or "" while the registry is
// uninitialized or unreadable. A ledger never changes once assigned.
func (s *Service) ledger(ctx context.Context) string {
	if id := s.ledgerID.Load(); id != nil {
		return *id
	}
	root, err := s.store.Root(ctx)
	if err != nil || root.Ledger == "" {
		return ""
	}
	s.ledgerID.Store(&root.Ledger)
	return root.Ledger
}

// observe opens a span for op and returns the function that closes it,
// recording latency and, for failures, the rejection code.
func (s *Service) observe(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registry."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			code := dErrors.CodeOf(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, string(code))
			if s.metrics != nil {
				s.metrics.IncrementRejected(op, string(code))
			}
		}
		if s.metrics != nil {
			s.metrics.ObserveOperation(op, start)
		}
		span.End()
	}
}

// translate passes domain errors through untouched and maps store sentinels
// to codes; anything else is internal.
func translate(err error, msg string) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, msg)
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

// increment adds one, failing instead of wrapping at the top of the range.
func increment(v uint64, counter string) (uint64, error) {
	sum, carry := bits.Add64(v, 1, 0)
	if carry != 0 {
		return 0, dErrors.New(dErrors.CodeOverflow, counter+" overflow")
	}
	return sum, nil
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, subject models.Address, tokenIDs []models.TokenID, detail string, attributes ...any) {
	caller := requestcontext.Caller(ctx)
	requestID := requestcontext.RequestID(ctx)
	attributes = append(attributes, "caller", caller.Hex(), "subject", subject.Hex())
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(event), "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event), args...)
	}
	if s.auditPublisher == nil {
		return
	}
	ids := make([]uint64, 0, len(tokenIDs))
	for _, id := range tokenIDs {
		ids = append(ids, uint64(id))
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Category:    event.Category(),
		Action:      string(event),
		Timestamp:   requestcontext.Now(ctx),
		Caller:      caller.Hex(),
		Subject:     subject.Hex(),
		TokenIDs:    ids,
		Detail:      detail,
		RequestID:   requestID,
		ClientIP:    requestcontext.ClientIP(ctx),
		ClientAgent: metadata.AgentSummary(ctx),
	})
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"event", string(event),
			"error", err,
		)
	}
}

// Package service orchestrates the lease lifecycle: draft creation,
// signature rounds, activation, termination by notice, and the temporal
// financial calculations hanging off an active lease.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"locatio/internal/deposit"
	"locatio/internal/event"
	"locatio/internal/lease/models"
	"locatio/internal/notice"
	"locatio/internal/platform/metrics"
	"locatio/internal/regularization"
	"locatio/internal/revision"
	"locatio/internal/signature"
	"locatio/pkg/domain"
	dErrors "locatio/pkg/domain-errors"
	"locatio/pkg/platform/sentinel"
	"locatio/pkg/requestcontext"
)

// LeaseStore is the persistence port for lease aggregates. Execute is
// the atomic validate-then-mutate primitive described in the store
// package.
type LeaseStore interface {
	Create(ctx context.Context, lease *models.Lease) error
	FindByID(ctx context.Context, leaseID domain.LeaseID) (*models.Lease, error)
	List(ctx context.Context) ([]*models.Lease, error)
	Execute(ctx context.Context, leaseID domain.LeaseID,
		validate func(*models.Lease) error,
		mutate func(*models.Lease)) (*models.Lease, error)
}

// RevisionStore persists rent revision records.
type RevisionStore interface {
	Create(ctx context.Context, record *revision.Record) error
	ListByLease(ctx context.Context, leaseID domain.LeaseID) ([]*revision.Record, error)
	Current(ctx context.Context, leaseID domain.LeaseID, year int) (*revision.Record, error)
}

// NoticeStore persists termination notices.
type NoticeStore interface {
	Create(ctx context.Context, n *notice.Notice) error
	ListByLease(ctx context.Context, leaseID domain.LeaseID) ([]*notice.Notice, error)
}

// RegularizationStore persists charge regularizations.
type RegularizationStore interface {
	Create(ctx context.Context, record *regularization.Regularization) error
	ListByLease(ctx context.Context, leaseID domain.LeaseID) ([]*regularization.Regularization, error)
}

// SettlementStore persists deposit settlements.
type SettlementStore interface {
	Create(ctx context.Context, settlement *deposit.Settlement) error
	ListByLease(ctx context.Context, leaseID domain.LeaseID) ([]*deposit.Settlement, error)
	Current(ctx context.Context, leaseID domain.LeaseID) (*deposit.Settlement, error)
}

// EventPublisher emits lease lifecycle events for downstream consumers.
type EventPublisher interface {
	Emit(ctx context.Context, e event.Event) error
}

// Service is the lease lifecycle orchestrator.
type Service struct {
	leases          LeaseStore
	revisions       RevisionStore
	notices         NoticeStore
	regularizations RegularizationStore
	settlements     SettlementStore
	provider        signature.Provider
	publisher       EventPublisher
	logger          *slog.Logger
	metrics         *metrics.Metrics
	tracer          trace.Tracer
}

type Option func(*Service)

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

func WithEventPublisher(publisher EventPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithSignatureProvider wires the electronic signature vendor. Without
// it, Send rejects electronic leases.
func WithSignatureProvider(provider signature.Provider) Option {
	return func(s *Service) {
		s.provider = provider
	}
}

func New(leases LeaseStore, revisions RevisionStore, notices NoticeStore,
	regularizations RegularizationStore, settlements SettlementStore, opts ...Option) *Service {
	s := &Service{
		leases:          leases,
		revisions:       revisions,
		notices:         notices,
		regularizations: regularizations,
		settlements:     settlements,
		logger:          slog.Default(),
		tracer:          otel.Tracer("locatio/lease"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) startSpan(ctx context.Context, name string, leaseID domain.LeaseID) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("lease.id", leaseID.String()),
	))
}

// wrapLeaseErr translates store sentinel errors into coded domain errors.
// Domain errors pass through untouched.
func wrapLeaseErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "lease not found")
	case errors.Is(err, sentinel.ErrVersionConflict):
		return dErrors.New(dErrors.CodeConflict, "lease was modified concurrently, retry")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeConflict, "lease already exists")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "lease storage failure")
	}
}

func (s *Service) emit(ctx context.Context, e event.Event) {
	if s.publisher == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = requestcontext.Now(ctx)
	}
	if err := s.publisher.Emit(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "event emission failed",
			"event", string(e.Type), "lease_id", e.LeaseID.String(), "error", err)
	}
}

func (s *Service) logAudit(ctx context.Context, action string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	if actor := requestcontext.ActorID(ctx); actor != "" {
		attributes = append(attributes, "actor_id", actor)
	}
	args := append(attributes, "event", action, "log_type", "audit")
	s.logger.InfoContext(ctx, action, args...)
}

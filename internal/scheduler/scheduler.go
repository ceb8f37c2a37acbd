// Package scheduler owns the daily temporal scan: revision-anchor reminders
// and the expiry sweep for fixed-term leases. The scan is idempotent per day;
// reminder emission is deduplicated through the revision DedupStore so
// re-runs and concurrent replicas never double-emit.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"locatio/internal/event"
	"locatio/internal/lease/models"
	"locatio/internal/platform/metrics"
	"locatio/internal/revision"
	"locatio/pkg/domain"
	"locatio/pkg/requestcontext"
)

// maxConcurrentLeases bounds the per-scan worker fan-out.
const maxConcurrentLeases = 8

// LeaseLister lists every lease the scan must consider.
type LeaseLister interface {
	List(ctx context.Context) ([]*models.Lease, error)
}

// LeaseExpirer transitions an active lease whose end date has passed.
type LeaseExpirer interface {
	ExpireLease(ctx context.Context, leaseID domain.LeaseID) (*models.Lease, error)
}

// EventPublisher emits lifecycle events.
type EventPublisher interface {
	Emit(ctx context.Context, e event.Event) error
}

// Scheduler runs the daily scan on a cron cadence.
type Scheduler struct {
	leases    LeaseLister
	expirer   LeaseExpirer
	dedup     revision.DedupStore
	publisher EventPublisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	cron      *cron.Cron
}

// Option configures optional scheduler dependencies.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithEventPublisher sets the lifecycle event publisher.
func WithEventPublisher(p EventPublisher) Option {
	return func(s *Scheduler) { s.publisher = p }
}

// New constructs the scheduler. The dedup store decides whether a reminder
// was already emitted; pass the Redis store when running more than one
// replica.
func New(leases LeaseLister, expirer LeaseExpirer, dedup revision.DedupStore, opts ...Option) *Scheduler {
	s := &Scheduler{
		leases:  leases,
		expirer: expirer,
		dedup:   dedup,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers the scan under the given cron spec and starts the cron
// runner.
func (s *Scheduler) Start(spec string) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.RunOnce(context.Background(), time.Now().UTC()); err != nil {
			s.logger.Error("daily scan failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid scan spec %q: %w", spec, err)
	}
	s.cron.Start()
	s.logger.Info("daily scan scheduled", "spec", spec)
	return nil
}

// Stop halts the cron runner and waits for a running scan to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// RunOnce performs one scan for the given day. A failure on one lease is
// logged and does not stop the rest of the sweep; only the listing error is
// returned.
func (s *Scheduler) RunOnce(ctx context.Context, today time.Time) error {
	ctx = requestcontext.WithTime(ctx, today)

	leases, err := s.leases.List(ctx)
	if err != nil {
		return fmt.Errorf("listing leases for daily scan: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLeases)
	for _, lease := range leases {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("daily scan panic",
						"lease_id", lease.ID, "panic", r)
				}
			}()
			s.scanLease(ctx, lease, today)
			return nil
		})
	}
	return g.Wait()
}

func (s *Scheduler) scanLease(ctx context.Context, lease *models.Lease, today time.Time) {
	if !lease.IsActive() {
		return
	}

	if reminder := revision.EvaluateAnchor(lease.ID, lease.RevisionAnchor, lease.StartDate, today); reminder != nil {
		s.emitReminder(ctx, reminder)
	}

	if lease.CanExpire(today) == nil {
		if _, err := s.expirer.ExpireLease(ctx, lease.ID); err != nil {
			// A concurrent writer may have beaten the sweep to it.
			s.logger.Warn("expiry sweep failed",
				"lease_id", lease.ID, "error", err)
		}
	}
}

func (s *Scheduler) emitReminder(ctx context.Context, reminder *revision.Reminder) {
	fresh, err := s.dedup.MarkSent(ctx, reminder.DedupKey())
	if err != nil {
		s.logger.Error("reminder dedup check failed",
			"lease_id", reminder.LeaseID, "error", err)
		return
	}
	if !fresh {
		return
	}

	if s.publisher != nil {
		err := s.publisher.Emit(ctx, event.Event{
			Type:    event.TypeRevisionDue,
			LeaseID: reminder.LeaseID,
			Data: map[string]any{
				"anchor_date":   reminder.AnchorDate.Format("2006-01-02"),
				"reminder_type": string(reminder.Type),
			},
		})
		if err != nil {
			// Release the claim so the next scan retries this reminder.
			s.logger.Warn("reminder event emission failed",
				"lease_id", reminder.LeaseID, "error", err)
			if unmarkErr := s.dedup.Unmark(ctx, reminder.DedupKey()); unmarkErr != nil {
				s.logger.Error("reminder dedup release failed",
					"lease_id", reminder.LeaseID, "error", unmarkErr)
			}
			return
		}
	}
	if s.metrics != nil {
		s.metrics.RevisionRemindersSent.WithLabelValues(string(reminder.Type)).Inc()
	}
	s.logger.Info("revision reminder emitted",
		"lease_id", reminder.LeaseID,
		"anchor_date", reminder.AnchorDate.Format("2006-01-02"),
		"type", reminder.Type)
}

package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"locatio/internal/deposit"
	"locatio/internal/event"
	"locatio/internal/lease/models"
	"locatio/internal/lease/service"
	leasestore "locatio/internal/lease/store"
	"locatio/internal/notice"
	"locatio/internal/regularization"
	"locatio/internal/revision"
	"locatio/pkg/domain"
)

type SchedulerSuite struct {
	suite.Suite
	ctx       context.Context
	leases    *leasestore.InMemoryStore
	sink      *event.MemorySink
	scheduler *Scheduler
}

func TestSchedulerSuite(t *testing.T) {
	suite.Run(t, new(SchedulerSuite))
}

func (s *SchedulerSuite) SetupTest() {
	s.ctx = context.Background()
	s.leases = leasestore.NewInMemoryStore()
	s.sink = event.NewMemorySink()

	publisher := event.NewPublisher(s.sink)
	svc := service.New(
		s.leases,
		revision.NewInMemoryStore(),
		notice.NewInMemoryStore(),
		regularization.NewInMemoryStore(),
		deposit.NewInMemoryStore(),
		service.WithEventPublisher(publisher),
	)

	s.scheduler = New(s.leases, svc, revision.NewInMemoryDedupStore(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithEventPublisher(publisher),
	)
}

// addLease seeds a lease directly into the store. Most scan cases need an
// active lease, so both signatures are applied before persisting.
func (s *SchedulerSuite) addLease(start time.Time, end *time.Time, anchor revision.Anchor, activate bool) *models.Lease {
	created := start.AddDate(0, 0, -7)
	lease, err := models.NewLease(
		domain.NewLeaseID(),
		domain.OwnerID(uuid.New()), domain.TenantID(uuid.New()), domain.PropertyID(uuid.New()),
		start, end,
		850, 120, 850,
		models.MethodManualPhysical, anchor,
		created,
	)
	s.Require().NoError(err)
	if activate {
		lease.ApplySignature(models.SignerOwner, "scan-owner", created)
		lease.ApplySignature(models.SignerTenant, "scan-tenant", created)
		s.Require().Equal(models.StatusActive, lease.Status)
	}
	s.Require().NoError(s.leases.Create(s.ctx, lease))
	return lease
}

func (s *SchedulerSuite) TestAnchorDueToday() {
	today := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	lease := s.addLease(
		time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC), nil,
		revision.Anchor{Month: time.April, Day: 1}, true,
	)

	s.Require().NoError(s.scheduler.RunOnce(s.ctx, today))

	due := s.sink.ByType(event.TypeRevisionDue)
	s.Require().Len(due, 1)
	s.Equal(lease.ID, due[0].LeaseID)
	s.Equal("today", due[0].Data["reminder_type"])
	s.Equal("2025-04-01", due[0].Data["anchor_date"])
}

func (s *SchedulerSuite) TestAnchorThirtyDaysOut() {
	today := time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)
	s.addLease(
		time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC), nil,
		revision.Anchor{Month: time.April, Day: 1}, true,
	)

	s.Require().NoError(s.scheduler.RunOnce(s.ctx, today))

	due := s.sink.ByType(event.TypeRevisionDue)
	s.Require().Len(due, 1)
	s.Equal("30_days", due[0].Data["reminder_type"])
}

func (s *SchedulerSuite) TestRerunSameDayEmitsNothing() {
	today := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	s.addLease(
		time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC), nil,
		revision.Anchor{Month: time.April, Day: 1}, true,
	)

	s.Require().NoError(s.scheduler.RunOnce(s.ctx, today))
	s.Require().NoError(s.scheduler.RunOnce(s.ctx, today))

	s.Len(s.sink.ByType(event.TypeRevisionDue), 1)
}

func (s *SchedulerSuite) TestFirstAnniversaryGatesTheAnchor() {
	// Anchor falls in the lease's first year; no reminder before the lease
	// turns one.
	today := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	s.addLease(
		time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC), nil,
		revision.Anchor{Month: time.April, Day: 1}, true,
	)

	s.Require().NoError(s.scheduler.RunOnce(s.ctx, today))
	s.Empty(s.sink.ByType(event.TypeRevisionDue))
}

func (s *SchedulerSuite) TestDraftLeaseIgnored() {
	today := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	s.addLease(
		time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC), nil,
		revision.Anchor{Month: time.April, Day: 1}, false,
	)

	s.Require().NoError(s.scheduler.RunOnce(s.ctx, today))
	s.Empty(s.sink.ByType(event.TypeRevisionDue))
}

// flakyPublisher fails a fixed number of emissions before delegating.
type flakyPublisher struct {
	delegate EventPublisher
	failures int
}

func (p *flakyPublisher) Emit(ctx context.Context, e event.Event) error {
	if p.failures > 0 {
		p.failures--
		return errors.New("broker unavailable")
	}
	return p.delegate.Emit(ctx, e)
}

func (s *SchedulerSuite) TestFailedReminderIsRetriedNextRun() {
	today := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	s.addLease(
		time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC), nil,
		revision.Anchor{Month: time.April, Day: 1}, true,
	)

	flaky := &flakyPublisher{delegate: event.NewPublisher(s.sink), failures: 1}
	sched := New(s.leases, nil, revision.NewInMemoryDedupStore(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithEventPublisher(flaky),
	)

	// First run fails to emit; the dedup claim is released.
	s.Require().NoError(sched.RunOnce(s.ctx, today))
	s.Empty(s.sink.ByType(event.TypeRevisionDue))

	// The retry emits exactly once, and a further run stays deduplicated.
	s.Require().NoError(sched.RunOnce(s.ctx, today))
	s.Require().NoError(sched.RunOnce(s.ctx, today))
	s.Len(s.sink.ByType(event.TypeRevisionDue), 1)
}

func (s *SchedulerSuite) TestExpirySweep() {
	today := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC)
	lease := s.addLease(
		time.Date(2022, time.May, 1, 0, 0, 0, 0, time.UTC), &end,
		revision.Anchor{Month: time.May, Day: 1}, true,
	)

	s.Require().NoError(s.scheduler.RunOnce(s.ctx, today))

	updated, err := s.leases.FindByID(s.ctx, lease.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusExpired, updated.Status)
	s.Len(s.sink.ByType(event.TypeLeaseExpired), 1)

	// Next day's run is a no-op: the lease is no longer active.
	s.Require().NoError(s.scheduler.RunOnce(s.ctx, today.AddDate(0, 0, 1)))
	s.Len(s.sink.ByType(event.TypeLeaseExpired), 1)
}

func (s *SchedulerSuite) TestExpiryWaitsForEndDate() {
	today := time.Date(2025, time.April, 29, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC)
	lease := s.addLease(
		time.Date(2022, time.May, 1, 0, 0, 0, 0, time.UTC), &end,
		revision.Anchor{Month: time.May, Day: 1}, true,
	)

	s.Require().NoError(s.scheduler.RunOnce(s.ctx, today))

	updated, err := s.leases.FindByID(s.ctx, lease.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusActive, updated.Status)
}

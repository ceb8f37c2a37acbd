package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"locatio/internal/deposit"
	"locatio/internal/event"
	"locatio/internal/lease/models"
	"locatio/internal/notice"
	"locatio/internal/regularization"
	"locatio/internal/revision"
	"locatio/pkg/domain"
	dErrors "locatio/pkg/domain-errors"
	"locatio/pkg/platform/sentinel"
	"locatio/pkg/requestcontext"
)

// IssueNotice serves a termination notice on an active lease: the
// move-out date is computed by calendar-month addition, the notice is
// persisted immutably, and the lease transitions to terminated with the
// move-out date as its end date.
func (s *Service) IssueNotice(ctx context.Context, leaseID domain.LeaseID, noticeDate time.Time, periodMonths int, issuedBy notice.IssuedBy) (*notice.Notice, *models.Lease, error) {
	if leaseID.IsNil() {
		return nil, nil, dErrors.New(dErrors.CodeBadRequest, "lease id is required")
	}

	ctx, span := s.startSpan(ctx, "LeaseService.IssueNotice", leaseID)
	defer span.End()

	now := requestcontext.Now(ctx)
	n, err := notice.New(domain.NoticeID(uuid.New()), leaseID, noticeDate, periodMonths, issuedBy, now)
	if err != nil {
		return nil, nil, err
	}

	var prevEndDate *time.Time
	updated, err := s.leases.Execute(ctx, leaseID,
		func(l *models.Lease) error { return l.CanTerminate() },
		func(l *models.Lease) {
			prevEndDate = l.EndDate
			l.ApplyTermination(n.MoveOutDate, now)
		},
	)
	if err != nil {
		return nil, nil, wrapLeaseErr(err)
	}

	if err := s.notices.Create(ctx, n); err != nil {
		// Undo the termination: a terminated lease with no notice on file
		// would be unexplained. Terminated is terminal, so nothing else
		// can have mutated the lease in between.
		if _, revertErr := s.leases.Execute(ctx, leaseID,
			func(*models.Lease) error { return nil },
			func(l *models.Lease) {
				l.Status = models.StatusActive
				l.EndDate = prevEndDate
				l.UpdatedAt = now
			},
		); revertErr != nil {
			s.logger.ErrorContext(ctx, "termination rollback failed",
				"lease_id", leaseID.String(), "error", revertErr)
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist notice")
	}

	s.logAudit(ctx, "lease.notice_issued",
		"lease_id", leaseID.String(), "issued_by", string(issuedBy),
		"move_out_date", n.MoveOutDate.Format("2006-01-02"))
	s.emit(ctx, event.Event{
		Type:    event.TypeNoticeIssued,
		LeaseID: leaseID,
		Data: map[string]any{
			"notice_id":     n.ID.String(),
			"move_out_date": n.MoveOutDate.Format("2006-01-02"),
			"issued_by":     string(issuedBy),
		},
	})
	s.emit(ctx, event.Event{Type: event.TypeLeaseTerminated, LeaseID: leaseID})
	if s.metrics != nil {
		s.metrics.NoticesIssued.Inc()
		s.metrics.LeasesTerminated.Inc()
	}
	return n, updated, nil
}

// ApplyRevision computes the IRL indexation for an active lease, applies
// the new rent, and persists the revision record. Recomputing the same
// year supersedes the previous record; the lease keeps the latest rent.
func (s *Service) ApplyRevision(ctx context.Context, leaseID domain.LeaseID, year int, irlQuarter string, referenceIRL, newIRL float64) (*revision.Record, error) {
	if leaseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "lease id is required")
	}
	if year <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "revision year is required")
	}

	ctx, span := s.startSpan(ctx, "LeaseService.ApplyRevision", leaseID)
	defer span.End()

	now := requestcontext.Now(ctx)
	var record *revision.Record
	_, err := s.leases.Execute(ctx, leaseID,
		func(l *models.Lease) error {
			if !l.IsActive() {
				return dErrors.Newf(dErrors.CodeInvalidTransition, "only an active lease can be revised, lease is %s", l.Status)
			}
			result, err := revision.Compute(l.MonthlyRent, referenceIRL, newIRL)
			if err != nil {
				return err
			}
			record = &revision.Record{
				ID:                 domain.RevisionID(uuid.New()),
				LeaseID:            leaseID,
				RevisionYear:       year,
				IRLQuarter:         irlQuarter,
				ReferenceIRLValue:  referenceIRL,
				NewIRLValue:        newIRL,
				OldRentAmount:      l.MonthlyRent,
				NewRentAmount:      result.NewRent,
				IncreaseAmount:     result.Increase,
				IncreasePercentage: result.Percentage,
				CreatedAt:          now,
			}
			return nil
		},
		func(l *models.Lease) {
			l.MonthlyRent = record.NewRentAmount
			l.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, wrapLeaseErr(err)
	}

	if err := s.revisions.Create(ctx, record); err != nil {
		// Restore the previous rent so the lease never carries a rent no
		// revision record accounts for. The guard skips the restore if a
		// concurrent revision already moved the rent on.
		if _, revertErr := s.leases.Execute(ctx, leaseID,
			func(*models.Lease) error { return nil },
			func(l *models.Lease) {
				if l.MonthlyRent == record.NewRentAmount {
					l.MonthlyRent = record.OldRentAmount
					l.UpdatedAt = now
				}
			},
		); revertErr != nil {
			s.logger.ErrorContext(ctx, "revision rollback failed",
				"lease_id", leaseID.String(), "error", revertErr)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist revision record")
	}

	s.logAudit(ctx, "lease.revision_applied",
		"lease_id", leaseID.String(), "year", year,
		"old_rent", record.OldRentAmount, "new_rent", record.NewRentAmount)
	s.emit(ctx, event.Event{
		Type:    event.TypeRevisionApplied,
		LeaseID: leaseID,
		Data: map[string]any{
			"revision_year": year,
			"old_rent":      record.OldRentAmount,
			"new_rent":      record.NewRentAmount,
		},
	})
	if s.metrics != nil {
		s.metrics.RevisionsComputed.Inc()
	}
	return record, nil
}

// ListRevisions returns a lease's revision history, superseded records
// included.
func (s *Service) ListRevisions(ctx context.Context, leaseID domain.LeaseID) ([]*revision.Record, error) {
	if leaseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "lease id is required")
	}
	records, err := s.revisions.ListByLease(ctx, leaseID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list revision records")
	}
	return records, nil
}

// ComputeRegularization reconciles a year of charges for a lease and
// persists the result. The caller supplies the provisions collected over
// the year and the building's annual charge lines.
func (s *Service) ComputeRegularization(ctx context.Context, leaseID domain.LeaseID, year int, provisionsCollected float64, lines []regularization.ChargeLine) (*regularization.Regularization, error) {
	if leaseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "lease id is required")
	}

	ctx, span := s.startSpan(ctx, "LeaseService.ComputeRegularization", leaseID)
	defer span.End()

	lease, err := s.leases.FindByID(ctx, leaseID)
	if err != nil {
		return nil, wrapLeaseErr(err)
	}

	record, err := regularization.Compute(leaseID, lease.StartDate, lease.EndDate, year,
		provisionsCollected, lines, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.regularizations.Create(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist regularization")
	}

	s.logAudit(ctx, "lease.regularization_computed",
		"lease_id", leaseID.String(), "year", year,
		"balance_type", string(record.BalanceType), "tenant_balance", record.TenantBalance)
	s.emit(ctx, event.Event{
		Type:    event.TypeRegularizationComputed,
		LeaseID: leaseID,
		Data: map[string]any{
			"year":           year,
			"balance_type":   string(record.BalanceType),
			"tenant_balance": record.TenantBalance,
		},
	})
	if s.metrics != nil {
		s.metrics.RegularizationsComputed.Inc()
	}
	return record, nil
}

// ComputeSettlement computes the deposit settlement for a terminated or
// expired lease. A recomputation supersedes the previous settlement via
// a new record; nothing is edited in place.
func (s *Service) ComputeSettlement(ctx context.Context, leaseID domain.LeaseID, retainedAmount float64, retainedReasons []string, restitutionDeadlineDays int) (*deposit.Settlement, error) {
	if leaseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "lease id is required")
	}

	ctx, span := s.startSpan(ctx, "LeaseService.ComputeSettlement", leaseID)
	defer span.End()

	lease, err := s.leases.FindByID(ctx, leaseID)
	if err != nil {
		return nil, wrapLeaseErr(err)
	}
	if lease.Status != models.StatusTerminated && lease.Status != models.StatusExpired {
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition, "deposit settles after termination or expiry, lease is %s", lease.Status)
	}
	if lease.EndDate == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "lease has no move-out date")
	}

	settlement, err := deposit.Compute(
		domain.SettlementID(uuid.New()), leaseID,
		lease.DepositAmount, retainedAmount, retainedReasons,
		*lease.EndDate, restitutionDeadlineDays,
		requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}

	if previous, err := s.settlements.Current(ctx, leaseID); err == nil {
		prevID := previous.ID
		settlement.Supersedes = &prevID
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load previous settlement")
	}

	if err := s.settlements.Create(ctx, settlement); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist settlement")
	}

	s.logAudit(ctx, "lease.settlement_computed",
		"lease_id", leaseID.String(),
		"refund_amount", settlement.RefundAmount,
		"deadline_date", settlement.DeadlineDate.Format("2006-01-02"))
	s.emit(ctx, event.Event{
		Type:    event.TypeSettlementReady,
		LeaseID: leaseID,
		Data: map[string]any{
			"settlement_id": settlement.ID.String(),
			"refund_amount": settlement.RefundAmount,
			"deadline_date": settlement.DeadlineDate.Format("2006-01-02"),
		},
	})
	if s.metrics != nil {
		s.metrics.SettlementsComputed.Inc()
	}
	return settlement, nil
}

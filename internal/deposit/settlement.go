// Package deposit computes the end-of-lease deposit settlement: lawful
// retentions, the refund owed to the tenant, and the statutory restitution
// deadline.
package deposit

import (
	"time"

	"locatio/internal/proration"
	domain "locatio/pkg/domain"
	dErrors "locatio/pkg/domain-errors"
)

// DefaultRestitutionDeadlineDays is the statutory default. The law
// distinguishes a longer deadline when retentions are contested; that branch
// is deliberately not modeled here, callers override the parameter when it
// applies.
const DefaultRestitutionDeadlineDays = 30

// Settlement is the computed deposit restitution for a terminated lease.
// Corrections supersede a previous settlement; records are never edited in
// place.
type Settlement struct {
	ID                      domain.SettlementID  `json:"id"`
	LeaseID                 domain.LeaseID       `json:"lease_id"`
	DepositAmount           float64              `json:"deposit_amount"`
	RetainedAmount          float64              `json:"retained_amount"`
	RetainedReasons         []string             `json:"retained_reasons"`
	RefundAmount            float64              `json:"refund_amount"`
	RestitutionDeadlineDays int                  `json:"restitution_deadline_days"`
	DeadlineDate            time.Time            `json:"deadline_date"`
	MoveOutDate             time.Time            `json:"move_out_date"`
	Supersedes              *domain.SettlementID `json:"supersedes,omitempty"`
	CreatedAt               time.Time            `json:"created_at"`
}

// Compute validates the retention and derives refund and deadline.
//
// A retention above the deposit is an error, not a clamp: the caller must
// surface it, because charging the tenant beyond the deposit is a separate
// legal claim, not a settlement.
func Compute(settlementID domain.SettlementID, leaseID domain.LeaseID, depositAmount, retainedAmount float64, retainedReasons []string, moveOutDate time.Time, restitutionDeadlineDays int, now time.Time) (*Settlement, error) {
	if depositAmount < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "deposit amount cannot be negative")
	}
	if retainedAmount < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "retained amount cannot be negative")
	}
	if retainedAmount > depositAmount {
		return nil, dErrors.New(dErrors.CodeRetainedExceedsDeposit, "retained amount exceeds the deposit")
	}
	if restitutionDeadlineDays <= 0 {
		restitutionDeadlineDays = DefaultRestitutionDeadlineDays
	}

	refund := depositAmount - retainedAmount
	if refund < 0 {
		refund = 0
	}

	moveOut := proration.Midnight(moveOutDate)
	return &Settlement{
		ID:                      settlementID,
		LeaseID:                 leaseID,
		DepositAmount:           domain.Round2(depositAmount),
		RetainedAmount:          domain.Round2(retainedAmount),
		RetainedReasons:         retainedReasons,
		RefundAmount:            domain.Round2(refund),
		RestitutionDeadlineDays: restitutionDeadlineDays,
		DeadlineDate:            moveOut.AddDate(0, 0, restitutionDeadlineDays),
		MoveOutDate:             moveOut,
		CreatedAt:               now,
	}, nil
}

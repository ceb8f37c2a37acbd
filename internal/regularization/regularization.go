// Package regularization implements the year-end reconciliation between
// charge provisions collected from the tenant and the real charges incurred.
package regularization

import (
	"time"

	"locatio/internal/proration"
	domain "locatio/pkg/domain"
	dErrors "locatio/pkg/domain-errors"
)

// ChargeLine is one annual charge item. Only recoverable lines enter the
// tenant balance; the rest stay with the owner.
type ChargeLine struct {
	Label       string  `json:"label"`
	Amount      float64 `json:"amount"`
	Recoverable bool    `json:"recoverable"`
}

// BalanceType states which way the regularization balance flows.
type BalanceType string

const (
	BalanceRefund BalanceType = "refund" // owner owes the tenant
	BalanceDue    BalanceType = "due"    // tenant owes the owner
)

// Regularization is the computed reconciliation for one lease and civil year.
// The occupation period is clipped to both the lease interval and the year.
type Regularization struct {
	LeaseID                  domain.LeaseID `json:"lease_id"`
	Year                     int            `json:"year"`
	PeriodStart              time.Time      `json:"period_start"`
	PeriodEnd                time.Time      `json:"period_end"`
	OccupationDays           int            `json:"occupation_days"`
	TotalProvisionsCollected float64        `json:"total_provisions_collected"`
	TotalRealCharges         float64        `json:"total_real_charges"`
	RecoverableCharges       float64        `json:"recoverable_charges"`
	NonRecoverableCharges    float64        `json:"non_recoverable_charges"`
	TenantBalance            float64        `json:"tenant_balance"`
	BalanceType              BalanceType    `json:"balance_type"`
	Lines                    []ChargeLine   `json:"lines"`
	CreatedAt                time.Time      `json:"created_at"`
}

// Compute reconciles a year of charges for a lease.
//
// The annual recoverable total is prorated over the lease's effective
// occupation of the year; the prorated share is compared with the provisions
// actually collected. A positive balance is a refund to the tenant, a
// negative one is an amount due. Figures are rounded to cents only here, at
// the record boundary.
func Compute(leaseID domain.LeaseID, leaseStart time.Time, leaseEnd *time.Time, year int, provisionsCollected float64, lines []ChargeLine, now time.Time) (*Regularization, error) {
	if provisionsCollected < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "provisions collected cannot be negative")
	}
	for _, line := range lines {
		if line.Amount < 0 {
			return nil, dErrors.Newf(dErrors.CodeValidation, "charge line %q has a negative amount", line.Label)
		}
	}

	prorata, err := proration.ExactProrata(leaseStart, leaseEnd, year)
	if err != nil {
		return nil, err
	}
	period := proration.EffectiveOccupationPeriod(leaseStart, leaseEnd, year)

	var recoverable, nonRecoverable float64
	for _, line := range lines {
		if line.Recoverable {
			recoverable += line.Amount
		} else {
			nonRecoverable += line.Amount
		}
	}

	recoverableShare := proration.ProratedAmount(recoverable, prorata)
	balance := provisionsCollected - recoverableShare

	balanceType := BalanceDue
	if balance >= 0 {
		balanceType = BalanceRefund
	}

	return &Regularization{
		LeaseID:                  leaseID,
		Year:                     year,
		PeriodStart:              period.Start,
		PeriodEnd:                period.End,
		OccupationDays:           prorata.OccupationDays,
		TotalProvisionsCollected: domain.Round2(provisionsCollected),
		TotalRealCharges:         domain.Round2(recoverable + nonRecoverable),
		RecoverableCharges:       domain.Round2(recoverableShare),
		NonRecoverableCharges:    domain.Round2(nonRecoverable),
		TenantBalance:            domain.Round2(abs(balance)),
		BalanceType:              balanceType,
		Lines:                    lines,
		CreatedAt:                now,
	}, nil
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

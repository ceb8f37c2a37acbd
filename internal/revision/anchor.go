package revision

import (
	"time"

	"locatio/internal/proration"
	id "locatio/pkg/domain"
	dErrors "locatio/pkg/domain-errors"
)

// Anchor is the calendar month and day on which a lease becomes eligible for
// its annual rent revision.
type Anchor struct {
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// Validate rejects anchors that can never name a real date. Feb 29 is
// allowed; in non-leap years it resolves to Mar 1 through normalization.
func (a Anchor) Validate() error {
	if a.Month < time.January || a.Month > time.December {
		return dErrors.New(dErrors.CodeValidation, "anchor month out of range")
	}
	if a.Day < 1 || a.Day > 31 {
		return dErrors.New(dErrors.CodeValidation, "anchor day out of range")
	}
	return nil
}

// EvaluateAnchor decides whether a revision reminder is due for a lease on a
// given day. Pure given today; the caller owns the daily invocation cadence
// and reminder deduplication.
//
// The effective anchor is the later of this year's anchor date and the first
// anniversary of the lease: a lease cannot be revised before it is a year
// old, even when the anchor date falls earlier.
//
// Both reminder checks use strict date equality. An anchor 31 days out
// produces nothing today and is picked up on a later run.
func EvaluateAnchor(leaseID id.LeaseID, anchor Anchor, startDate, today time.Time) *Reminder {
	today = proration.Midnight(today)

	thisYearAnchor := time.Date(today.Year(), anchor.Month, anchor.Day, 0, 0, 0, 0, time.UTC)
	firstEligible := proration.Midnight(startDate).AddDate(1, 0, 0)

	effective := thisYearAnchor
	if firstEligible.After(effective) {
		effective = firstEligible
	}

	switch {
	case effective.Equal(today):
		return &Reminder{LeaseID: leaseID, AnchorDate: effective, Type: ReminderToday}
	case effective.Equal(today.AddDate(0, 0, 30)):
		return &Reminder{LeaseID: leaseID, AnchorDate: effective, Type: Reminder30Days}
	default:
		return nil
	}
}

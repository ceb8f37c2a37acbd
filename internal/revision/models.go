// Package revision implements annual rent indexation: the IRL revision
// formula, the anchor-date engine deciding when a revision becomes due, and
// the revision record store.
package revision

import (
	"time"

	id "locatio/pkg/domain"
)

// Record captures one computed rent revision. At most one non-superseded
// record exists per lease per revision year; a correction supersedes the
// previous record rather than editing it.
type Record struct {
	ID                 id.RevisionID `json:"id"`
	LeaseID            id.LeaseID    `json:"lease_id"`
	RevisionYear       int           `json:"revision_year"`
	IRLQuarter         string        `json:"irl_quarter"`
	ReferenceIRLValue  float64       `json:"reference_irl_value"`
	NewIRLValue        float64       `json:"new_irl_value"`
	OldRentAmount      float64       `json:"old_rent_amount"`
	NewRentAmount      float64       `json:"new_rent_amount"`
	IncreaseAmount     float64       `json:"increase_amount"`
	IncreasePercentage float64       `json:"increase_percentage"`
	Superseded         bool          `json:"superseded"`
	CreatedAt          time.Time     `json:"created_at"`
}

// ReminderType distinguishes the two reminder horizons the anchor engine
// emits.
type ReminderType string

const (
	ReminderToday  ReminderType = "today"
	Reminder30Days ReminderType = "30_days"
)

// Reminder is the plain-data intent emitted when a lease's revision anchor is
// due now or in exactly thirty days.
type Reminder struct {
	LeaseID    id.LeaseID   `json:"lease_id"`
	AnchorDate time.Time    `json:"anchor_date"`
	Type       ReminderType `json:"type"`
}

// DedupKey is the idempotency key for reminder emission: re-running the scan
// for the same lease and day must not emit the same reminder twice.
func (r Reminder) DedupKey() string {
	return r.LeaseID.String() + ":" + r.AnchorDate.Format("2006-01-02") + ":" + string(r.Type)
}

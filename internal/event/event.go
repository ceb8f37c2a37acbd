package event

import (
	"time"

	"locatio/pkg/domain"
)

// Type names a lease lifecycle notification intent. Consumers downstream
// (document generation, email, bookkeeping) subscribe by type.
type Type string

const (
	TypeLeaseCreated           Type = "lease_created"
	TypeSignatureRecorded      Type = "signature_recorded"
	TypeLeaseActivated         Type = "lease_activated"
	TypeLeaseTerminated        Type = "lease_terminated"
	TypeLeaseExpired           Type = "lease_expired"
	TypeNoticeIssued           Type = "notice_issued"
	TypeRevisionDue            Type = "revision_due"
	TypeRevisionApplied        Type = "revision_applied"
	TypeRegularizationComputed Type = "regularization_computed"
	TypeSettlementReady        Type = "deposit_settlement_ready"
)

// Event is one lease lifecycle notification. Data carries event-specific
// fields; the envelope is stable across types.
type Event struct {
	Type       Type           `json:"type"`
	LeaseID    domain.LeaseID `json:"lease_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

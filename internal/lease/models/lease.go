package models

import (
	"time"

	"locatio/internal/revision"
	"locatio/pkg/domain"
	dErrors "locatio/pkg/domain-errors"
)

// SignatureState records one party's signature on the lease document.
// It is created empty at lease creation and only ever appended to:
// once Signed flips to true it never flips back, and the evidence
// reference is never replaced.
type SignatureState struct {
	Signed      bool       `json:"signed"`
	SignedAt    *time.Time `json:"signed_at,omitempty"`
	EvidenceRef string     `json:"evidence_ref,omitempty"`
}

// Signatures holds both parties' signature states.
type Signatures struct {
	Owner  SignatureState `json:"owner"`
	Tenant SignatureState `json:"tenant"`
}

func (s *Signatures) ByRole(role SignerRole) *SignatureState {
	if role == SignerOwner {
		return &s.Owner
	}
	return &s.Tenant
}

func (s Signatures) BothSigned() bool {
	return s.Owner.Signed && s.Tenant.Signed
}

// ProviderStatus is the vocabulary reported by the electronic signature
// provider for an envelope.
type ProviderStatus string

const (
	ProviderStatusSent      ProviderStatus = "sent"
	ProviderStatusDelivered ProviderStatus = "delivered"
	ProviderStatusSigned    ProviderStatus = "signed"
	ProviderStatusCompleted ProviderStatus = "completed"
	ProviderStatusDeclined  ProviderStatus = "declined"
	ProviderStatusVoided    ProviderStatus = "voided"
)

func (p ProviderStatus) IsValid() bool {
	switch p {
	case ProviderStatusSent, ProviderStatusDelivered, ProviderStatusSigned,
		ProviderStatusCompleted, ProviderStatusDeclined, ProviderStatusVoided:
		return true
	}
	return false
}

// IsTerminalFailure reports whether the provider status ends the current
// signature round without completion. A failed round blocks activation
// until a new envelope is sent; it never rolls the lease status back.
func (p ProviderStatus) IsTerminalFailure() bool {
	return p == ProviderStatusDeclined || p == ProviderStatusVoided
}

// Lease is the aggregate root for a rental agreement.
//
// Invariants:
//   - Status is one of the closed LeaseStatus set; transitions follow NextStatus
//   - Status == active implies both signature states are signed
//   - SignatureState is append-only: signed never reverts, evidence is never replaced
//   - SignatureMethod is fixed at creation; every recorded signature must match it
//   - EndDate, when set, is not before StartDate
//   - Version increments on every persisted mutation (optimistic concurrency)
type Lease struct {
	ID               domain.LeaseID    `json:"id"`
	OwnerID          domain.OwnerID    `json:"owner_id"`
	TenantID         domain.TenantID   `json:"tenant_id"`
	PropertyID       domain.PropertyID `json:"property_id"`
	StartDate        time.Time         `json:"start_date"`
	EndDate          *time.Time        `json:"end_date,omitempty"`
	MonthlyRent      float64           `json:"monthly_rent"`
	ChargesProvision float64           `json:"charges_provision"`
	DepositAmount    float64           `json:"deposit_amount"`
	Status           LeaseStatus       `json:"status"`
	SignatureMethod  SignatureMethod   `json:"signature_method"`
	Signatures       Signatures        `json:"signatures"`
	RevisionAnchor   revision.Anchor   `json:"revision_anchor"`

	// Electronic signature round. EnvelopeID is set when an envelope is
	// created; SignatureRoundFailed is set when the provider reports a
	// terminal failure and cleared when a new envelope starts a new round.
	EnvelopeID           string `json:"envelope_id,omitempty"`
	SignatureRoundFailed bool   `json:"signature_round_failed,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewLease(
	leaseID domain.LeaseID,
	ownerID domain.OwnerID,
	tenantID domain.TenantID,
	propertyID domain.PropertyID,
	startDate time.Time,
	endDate *time.Time,
	monthlyRent float64,
	chargesProvision float64,
	depositAmount float64,
	method SignatureMethod,
	anchor revision.Anchor,
	now time.Time,
) (*Lease, error) {
	if ownerID.IsNil() || tenantID.IsNil() || propertyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "owner, tenant and property are required")
	}
	if startDate.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "start date is required")
	}
	if endDate != nil && endDate.Before(startDate) {
		return nil, dErrors.New(dErrors.CodeInvalidDateRange, "end date cannot be before start date")
	}
	if monthlyRent <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "monthly rent must be positive")
	}
	if chargesProvision < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "charges provision cannot be negative")
	}
	if depositAmount < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "deposit amount cannot be negative")
	}
	if !method.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid signature method")
	}
	if err := anchor.Validate(); err != nil {
		return nil, err
	}
	return &Lease{
		ID:               leaseID,
		OwnerID:          ownerID,
		TenantID:         tenantID,
		PropertyID:       propertyID,
		StartDate:        startDate,
		EndDate:          endDate,
		MonthlyRent:      monthlyRent,
		ChargesProvision: chargesProvision,
		DepositAmount:    depositAmount,
		Status:           StatusDraft,
		SignatureMethod:  method,
		RevisionAnchor:   anchor,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (l *Lease) IsActive() bool {
	return l.Status == StatusActive
}

// CanRecordSignature checks whether a signature by the given party with
// the given method may be recorded. A party that already signed is NOT
// an error: recording again is an idempotent no-op, which ApplySignature
// honors. Use with ApplySignature in Execute callbacks.
func (l *Lease) CanRecordSignature(party SignerRole, method SignatureMethod) error {
	if !party.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown signer role")
	}
	if !method.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown signature method")
	}
	if method != l.SignatureMethod {
		return dErrors.Newf(dErrors.CodeMethodMismatch, "lease uses %s signatures, got %s", l.SignatureMethod, method)
	}
	if l.Status.IsTerminal() {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "lease is %s and can no longer be signed", l.Status)
	}
	if l.SignatureRoundFailed {
		return dErrors.New(dErrors.CodeConflict, "signature round failed; a new signature round is required")
	}
	return nil
}

// ApplySignature records the party's signature and advances the status
// through NextStatus. Once both parties have signed, the lease promotes
// to active no matter which intermediate state the table landed on: a
// tenant signing a draft passes through sent_to_tenant, where the
// owner's signature is a table no-op, so the table alone cannot finish
// that ordering. If the party already signed, nothing changes. Call
// CanRecordSignature first to validate.
func (l *Lease) ApplySignature(party SignerRole, evidenceRef string, now time.Time) {
	state := l.Signatures.ByRole(party)
	if state.Signed {
		return
	}
	state.Signed = true
	signedAt := now
	state.SignedAt = &signedAt
	state.EvidenceRef = evidenceRef
	l.Status = NextStatus(l.Status, party)
	if l.Signatures.BothSigned() && !l.Status.IsTerminal() {
		l.Status = StatusActive
	}
	l.UpdatedAt = now
}

// CanSend checks whether the lease can be sent to the provider for an
// electronic signature round. Sending while a previous round failed is
// allowed: the new envelope replaces the failed one.
func (l *Lease) CanSend() error {
	if l.SignatureMethod != MethodElectronic {
		return dErrors.Newf(dErrors.CodeMethodMismatch, "lease uses %s signatures; only electronic leases are sent to a provider", l.SignatureMethod)
	}
	if l.Status.IsTerminal() || l.Status == StatusActive {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "lease is %s and cannot start a signature round", l.Status)
	}
	return nil
}

// ApplyEnvelope starts a new electronic signature round with the given
// provider envelope, clearing any terminal failure from a previous round.
func (l *Lease) ApplyEnvelope(envelopeID string, now time.Time) {
	l.EnvelopeID = envelopeID
	l.SignatureRoundFailed = false
	if l.Status == StatusDraft {
		l.Status = StatusSentToTenant
	}
	l.UpdatedAt = now
}

// CanReconcileProviderStatus checks whether the provider status can be
// applied to this lease.
func (l *Lease) CanReconcileProviderStatus(status ProviderStatus) error {
	if l.SignatureMethod != MethodElectronic {
		return dErrors.Newf(dErrors.CodeMethodMismatch, "lease uses %s signatures; there is no provider envelope to reconcile", l.SignatureMethod)
	}
	if l.EnvelopeID == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "no signature envelope has been created for this lease")
	}
	if !status.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown provider status %q", status)
	}
	return nil
}

// ApplyProviderStatus maps the provider vocabulary onto the signature
// states. "completed" marks both parties signed with the envelope as
// evidence; "declined" and "voided" set the terminal-failure flag that
// blocks activation until a new round starts. Progress statuses (sent,
// delivered, signed) do not change signature state: the provider does
// not attribute them to a party. Call CanReconcileProviderStatus first.
func (l *Lease) ApplyProviderStatus(status ProviderStatus, now time.Time) {
	switch {
	case status == ProviderStatusCompleted:
		l.ApplySignature(SignerOwner, l.EnvelopeID, now)
		l.ApplySignature(SignerTenant, l.EnvelopeID, now)
	case status.IsTerminalFailure():
		l.SignatureRoundFailed = true
		l.UpdatedAt = now
	}
}

// CanTerminate checks whether the lease can transition to terminated.
func (l *Lease) CanTerminate() error {
	if l.Status != StatusActive {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "only an active lease can be terminated, lease is %s", l.Status)
	}
	return nil
}

// ApplyTermination transitions the lease to terminated as of the move-out
// date. Call CanTerminate first.
func (l *Lease) ApplyTermination(moveOutDate time.Time, now time.Time) {
	l.Status = StatusTerminated
	endDate := moveOutDate
	l.EndDate = &endDate
	l.UpdatedAt = now
}

// CanExpire checks whether the lease can transition to expired: it must
// be active, carry an end date, and the end date must have passed.
func (l *Lease) CanExpire(today time.Time) error {
	if l.Status != StatusActive {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "only an active lease can expire, lease is %s", l.Status)
	}
	if l.EndDate == nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "lease has no end date")
	}
	if !l.EndDate.Before(today) {
		return dErrors.New(dErrors.CodeInvariantViolation, "lease end date has not passed")
	}
	return nil
}

// ApplyExpiry transitions the lease to expired. Call CanExpire first.
func (l *Lease) ApplyExpiry(now time.Time) {
	l.Status = StatusExpired
	l.UpdatedAt = now
}

// CanRenew checks whether the lease can transition to renewed.
func (l *Lease) CanRenew() error {
	if l.Status != StatusActive {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "only an active lease can be renewed, lease is %s", l.Status)
	}
	return nil
}

// ApplyRenewal marks the lease renewed. The successor lease is created
// separately as a new draft. Call CanRenew first.
func (l *Lease) ApplyRenewal(now time.Time) {
	l.Status = StatusRenewed
	l.UpdatedAt = now
}

// Clone returns a deep copy of the lease. Stores hand out clones so
// callers never share mutable state with the store.
func (l *Lease) Clone() *Lease {
	cp := *l
	if l.EndDate != nil {
		endDate := *l.EndDate
		cp.EndDate = &endDate
	}
	if l.Signatures.Owner.SignedAt != nil {
		t := *l.Signatures.Owner.SignedAt
		cp.Signatures.Owner.SignedAt = &t
	}
	if l.Signatures.Tenant.SignedAt != nil {
		t := *l.Signatures.Tenant.SignedAt
		cp.Signatures.Tenant.SignedAt = &t
	}
	return &cp
}

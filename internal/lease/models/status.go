package models

// LeaseStatus is the closed set of lease lifecycle states.
type LeaseStatus string

const (
	StatusDraft          LeaseStatus = "draft"
	StatusSentToTenant   LeaseStatus = "sent_to_tenant"
	StatusSignedByTenant LeaseStatus = "signed_by_tenant"
	StatusSignedByOwner  LeaseStatus = "signed_by_owner"
	StatusActive         LeaseStatus = "active"
	StatusExpired        LeaseStatus = "expired"
	StatusTerminated     LeaseStatus = "terminated"
	StatusRenewed        LeaseStatus = "renewed"
)

func (s LeaseStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusSentToTenant, StatusSignedByTenant, StatusSignedByOwner,
		StatusActive, StatusExpired, StatusTerminated, StatusRenewed:
		return true
	}
	return false
}

// IsTerminal reports whether the status is a lifecycle endpoint: no
// signature can move the lease out of it.
func (s LeaseStatus) IsTerminal() bool {
	switch s {
	case StatusExpired, StatusTerminated, StatusRenewed:
		return true
	}
	return false
}

// SignerRole identifies which party to the lease is signing.
type SignerRole string

const (
	SignerOwner  SignerRole = "owner"
	SignerTenant SignerRole = "tenant"
)

func (r SignerRole) IsValid() bool {
	return r == SignerOwner || r == SignerTenant
}

// SignatureMethod is how the parties sign the lease document.
type SignatureMethod string

const (
	MethodElectronic     SignatureMethod = "electronic"
	MethodManualPhysical SignatureMethod = "manual_physical"
	MethodManualRemote   SignatureMethod = "manual_remote"
)

func (m SignatureMethod) IsValid() bool {
	switch m {
	case MethodElectronic, MethodManualPhysical, MethodManualRemote:
		return true
	}
	return false
}

// NextStatus is the total transition function over lease statuses.
// It never returns an error and never panics: unknown statuses, unknown
// signer roles, and terminal states are all fixed points. Callers own
// every side effect (persistence, notification); this function only
// answers "what status follows when this party signs".
//
// Transition table:
//
//	draft            + owner  -> signed_by_owner
//	draft            + tenant -> sent_to_tenant
//	sent_to_tenant   + owner  -> sent_to_tenant (no-op)
//	sent_to_tenant   + tenant -> signed_by_tenant
//	signed_by_tenant + owner  -> active
//	signed_by_tenant + tenant -> signed_by_tenant (no-op)
//	signed_by_owner  + owner  -> signed_by_owner (no-op)
//	signed_by_owner  + tenant -> active
//	active/expired/terminated/renewed -> unchanged
func NextStatus(current LeaseStatus, signer SignerRole) LeaseStatus {
	switch current {
	case StatusDraft:
		switch signer {
		case SignerOwner:
			return StatusSignedByOwner
		case SignerTenant:
			return StatusSentToTenant
		}
	case StatusSentToTenant:
		if signer == SignerTenant {
			return StatusSignedByTenant
		}
	case StatusSignedByTenant:
		if signer == SignerOwner {
			return StatusActive
		}
	case StatusSignedByOwner:
		if signer == SignerTenant {
			return StatusActive
		}
	}
	return current
}

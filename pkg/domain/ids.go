// Package domain holds shared domain primitives: typed identifiers and money
// rounding. Typed IDs make cross-aggregate assignment a compile error; parse
// helpers enforce validity at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "locatio/pkg/domain-errors"
)

// Typed identifiers for the aggregates this core touches. Owner, tenant and
// property records live in other services; here they are opaque references.
type (
	LeaseID      uuid.UUID
	OwnerID      uuid.UUID
	TenantID     uuid.UUID
	PropertyID   uuid.UUID
	NoticeID     uuid.UUID
	RevisionID   uuid.UUID
	SettlementID uuid.UUID
)

func (id LeaseID) String() string      { return uuid.UUID(id).String() }
func (id OwnerID) String() string      { return uuid.UUID(id).String() }
func (id TenantID) String() string     { return uuid.UUID(id).String() }
func (id PropertyID) String() string   { return uuid.UUID(id).String() }
func (id NoticeID) String() string     { return uuid.UUID(id).String() }
func (id RevisionID) String() string   { return uuid.UUID(id).String() }
func (id SettlementID) String() string { return uuid.UUID(id).String() }

func (id LeaseID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id OwnerID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id TenantID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id PropertyID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Text marshaling keeps the UUID string form in JSON; the defined types do
// not inherit uuid.UUID's methods.
func (id LeaseID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id OwnerID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id TenantID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id PropertyID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id NoticeID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id RevisionID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id SettlementID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *LeaseID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *OwnerID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *TenantID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *PropertyID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *NoticeID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *RevisionID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *SettlementID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

// NewLeaseID returns a fresh random lease identifier.
func NewLeaseID() LeaseID { return LeaseID(uuid.New()) }

// ParseLeaseID constructs a LeaseID from external input. IDs must be valid,
// non-nil UUIDs; direct casting bypasses validation.
func ParseLeaseID(s string) (LeaseID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return LeaseID{}, err
	}
	return LeaseID(u), nil
}

// ParseOwnerID constructs an OwnerID from external input.
func ParseOwnerID(s string) (OwnerID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return OwnerID{}, err
	}
	return OwnerID(u), nil
}

// ParseTenantID constructs a TenantID from external input.
func ParseTenantID(s string) (TenantID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return TenantID{}, err
	}
	return TenantID(u), nil
}

// ParsePropertyID constructs a PropertyID from external input.
func ParsePropertyID(s string) (PropertyID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return PropertyID{}, err
	}
	return PropertyID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}

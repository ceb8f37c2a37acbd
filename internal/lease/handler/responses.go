package handler

import (
	"time"

	"locatio/internal/lease/models"
	"locatio/internal/notice"
)

// LeaseResponse is the HTTP representation of a lease.
type LeaseResponse struct {
	ID                   string             `json:"id"`
	OwnerID              string             `json:"owner_id"`
	TenantID             string             `json:"tenant_id"`
	PropertyID           string             `json:"property_id"`
	StartDate            string             `json:"start_date"`
	EndDate              string             `json:"end_date,omitempty"`
	MonthlyRent          float64            `json:"monthly_rent"`
	ChargesProvision     float64            `json:"charges_provision"`
	DepositAmount        float64            `json:"deposit_amount"`
	Status               string             `json:"status"`
	SignatureMethod      string             `json:"signature_method"`
	Signatures           SignaturesResponse `json:"signatures"`
	RevisionAnchor       AnchorRequest      `json:"revision_anchor"`
	EnvelopeID           string             `json:"envelope_id,omitempty"`
	SignatureRoundFailed bool               `json:"signature_round_failed,omitempty"`
	Version              int                `json:"version"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// SignaturesResponse groups both parties' signature states.
type SignaturesResponse struct {
	Owner  SignatureStateResponse `json:"owner"`
	Tenant SignatureStateResponse `json:"tenant"`
}

// SignatureStateResponse is one party's signature state.
type SignatureStateResponse struct {
	Signed      bool       `json:"signed"`
	SignedAt    *time.Time `json:"signed_at,omitempty"`
	EvidenceRef string     `json:"evidence_ref,omitempty"`
}

// FromLease converts a domain lease to its HTTP representation.
func FromLease(lease *models.Lease) *LeaseResponse {
	resp := &LeaseResponse{
		ID:                   lease.ID.String(),
		OwnerID:              lease.OwnerID.String(),
		TenantID:             lease.TenantID.String(),
		PropertyID:           lease.PropertyID.String(),
		StartDate:            lease.StartDate.Format(dateLayout),
		MonthlyRent:          lease.MonthlyRent,
		ChargesProvision:     lease.ChargesProvision,
		DepositAmount:        lease.DepositAmount,
		Status:               string(lease.Status),
		SignatureMethod:      string(lease.SignatureMethod),
		RevisionAnchor:       AnchorRequest{Month: int(lease.RevisionAnchor.Month), Day: lease.RevisionAnchor.Day},
		EnvelopeID:           lease.EnvelopeID,
		SignatureRoundFailed: lease.SignatureRoundFailed,
		Version:              lease.Version,
		CreatedAt:            lease.CreatedAt,
		UpdatedAt:            lease.UpdatedAt,
	}
	if lease.EndDate != nil {
		resp.EndDate = lease.EndDate.Format(dateLayout)
	}
	resp.Signatures.Owner = fromSignatureState(lease.Signatures.Owner)
	resp.Signatures.Tenant = fromSignatureState(lease.Signatures.Tenant)
	return resp
}

func fromSignatureState(s models.SignatureState) SignatureStateResponse {
	return SignatureStateResponse{
		Signed:      s.Signed,
		SignedAt:    s.SignedAt,
		EvidenceRef: s.EvidenceRef,
	}
}

// FromLeases converts a list of leases.
func FromLeases(leases []*models.Lease) []*LeaseResponse {
	out := make([]*LeaseResponse, 0, len(leases))
	for _, lease := range leases {
		out = append(out, FromLease(lease))
	}
	return out
}

// ListLeasesResponse is the HTTP response for GET /leases.
type ListLeasesResponse struct {
	Leases []*LeaseResponse `json:"leases"`
}

// IssueNoticeResponse pairs the created notice with the terminated lease.
type IssueNoticeResponse struct {
	Notice *notice.Notice `json:"notice"`
	Lease  *LeaseResponse `json:"lease"`
}

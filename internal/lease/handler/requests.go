package handler

import (
	"encoding/base64"
	"strings"
	"time"

	"locatio/internal/lease/models"
	"locatio/internal/notice"
	"locatio/internal/regularization"
	"locatio/internal/revision"
	"locatio/internal/signature"
	"locatio/pkg/domain"
	dErrors "locatio/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, dErrors.Newf(dErrors.CodeValidation, "%s must be a %s date", field, dateLayout)
	}
	return t, nil
}

// AnchorRequest is the revision anchor portion of a lease creation body.
type AnchorRequest struct {
	Month int `json:"month"`
	Day   int `json:"day"`
}

// CreateLeaseRequest is the HTTP request body for POST /leases.
type CreateLeaseRequest struct {
	OwnerID          string        `json:"owner_id"`
	TenantID         string        `json:"tenant_id"`
	PropertyID       string        `json:"property_id"`
	StartDate        string        `json:"start_date"`
	EndDate          string        `json:"end_date,omitempty"`
	MonthlyRent      float64       `json:"monthly_rent"`
	ChargesProvision float64       `json:"charges_provision"`
	DepositAmount    float64       `json:"deposit_amount"`
	SignatureMethod  string        `json:"signature_method"`
	RevisionAnchor   AnchorRequest `json:"revision_anchor"`

	// Parsed values (populated by Validate)
	parsedOwnerID    domain.OwnerID
	parsedTenantID   domain.TenantID
	parsedPropertyID domain.PropertyID
	parsedStartDate  time.Time
	parsedEndDate    *time.Time
	parsedMethod     models.SignatureMethod
	parsedAnchor     revision.Anchor
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateLeaseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	var err error
	if r.parsedOwnerID, err = domain.ParseOwnerID(strings.TrimSpace(r.OwnerID)); err != nil {
		return dErrors.New(dErrors.CodeValidation, "owner_id must be a UUID")
	}
	if r.parsedTenantID, err = domain.ParseTenantID(strings.TrimSpace(r.TenantID)); err != nil {
		return dErrors.New(dErrors.CodeValidation, "tenant_id must be a UUID")
	}
	if r.parsedPropertyID, err = domain.ParsePropertyID(strings.TrimSpace(r.PropertyID)); err != nil {
		return dErrors.New(dErrors.CodeValidation, "property_id must be a UUID")
	}

	if r.parsedStartDate, err = parseDate("start_date", r.StartDate); err != nil {
		return err
	}
	if r.EndDate != "" {
		end, err := parseDate("end_date", r.EndDate)
		if err != nil {
			return err
		}
		r.parsedEndDate = &end
	}

	r.parsedMethod = models.SignatureMethod(strings.TrimSpace(r.SignatureMethod))
	if !r.parsedMethod.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown signature_method %q", r.SignatureMethod)
	}

	r.parsedAnchor = revision.Anchor{Month: time.Month(r.RevisionAnchor.Month), Day: r.RevisionAnchor.Day}
	return r.parsedAnchor.Validate()
}

// SendForSignatureRequest is the HTTP request body for POST /leases/{leaseID}/send.
type SendForSignatureRequest struct {
	Document string          `json:"document"`
	Signers  []SignerRequest `json:"signers"`

	parsedDocument []byte
	parsedSigners  []signature.Signer
}

// SignerRequest identifies one envelope recipient.
type SignerRequest struct {
	Role  string `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Validate validates and parses the request.
func (r *SendForSignatureRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Document == "" {
		return dErrors.New(dErrors.CodeValidation, "document is required")
	}

	doc, err := base64.StdEncoding.DecodeString(r.Document)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "document must be base64 encoded")
	}
	r.parsedDocument = doc

	if len(r.Signers) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one signer is required")
	}
	r.parsedSigners = make([]signature.Signer, 0, len(r.Signers))
	for _, signer := range r.Signers {
		role := models.SignerRole(strings.TrimSpace(signer.Role))
		if !role.IsValid() {
			return dErrors.Newf(dErrors.CodeValidation, "unknown signer role %q", signer.Role)
		}
		if strings.TrimSpace(signer.Email) == "" {
			return dErrors.New(dErrors.CodeValidation, "signer email is required")
		}
		r.parsedSigners = append(r.parsedSigners, signature.Signer{
			Role:  role,
			Name:  strings.TrimSpace(signer.Name),
			Email: strings.TrimSpace(signer.Email),
		})
	}
	return nil
}

// RecordSignatureRequest is the HTTP request body for POST /leases/{leaseID}/signatures.
type RecordSignatureRequest struct {
	Party       string `json:"party"`
	Method      string `json:"method"`
	EvidenceRef string `json:"evidence_ref,omitempty"`

	parsedParty  models.SignerRole
	parsedMethod models.SignatureMethod
}

// Validate validates and parses the request.
func (r *RecordSignatureRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.parsedParty = models.SignerRole(strings.TrimSpace(r.Party))
	if !r.parsedParty.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown party %q", r.Party)
	}
	r.parsedMethod = models.SignatureMethod(strings.TrimSpace(r.Method))
	if !r.parsedMethod.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown method %q", r.Method)
	}
	r.EvidenceRef = strings.TrimSpace(r.EvidenceRef)
	return nil
}

// ReconcileRequest is the HTTP request body for POST
// /leases/{leaseID}/signatures/reconcile. An empty provider_status asks the
// service to poll the provider.
type ReconcileRequest struct {
	ProviderStatus string `json:"provider_status,omitempty"`
}

// IssueNoticeRequest is the HTTP request body for POST /leases/{leaseID}/notice.
type IssueNoticeRequest struct {
	NoticeDate   string `json:"notice_date"`
	PeriodMonths int    `json:"period_months"`
	IssuedBy     string `json:"issued_by"`

	parsedNoticeDate time.Time
	parsedIssuedBy   notice.IssuedBy
}

// Validate validates and parses the request. Date and period semantics are
// enforced by the notice package; only shape is checked here.
func (r *IssueNoticeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	var err error
	if r.parsedNoticeDate, err = parseDate("notice_date", r.NoticeDate); err != nil {
		return err
	}
	r.parsedIssuedBy = notice.IssuedBy(strings.TrimSpace(r.IssuedBy))
	if r.parsedIssuedBy != notice.IssuedByTenant && r.parsedIssuedBy != notice.IssuedByOwner {
		return dErrors.Newf(dErrors.CodeValidation, "issued_by must be %q or %q", notice.IssuedByTenant, notice.IssuedByOwner)
	}
	return nil
}

// ApplyRevisionRequest is the HTTP request body for POST /leases/{leaseID}/revisions.
type ApplyRevisionRequest struct {
	Year         int     `json:"year"`
	IRLQuarter   string  `json:"irl_quarter"`
	ReferenceIRL float64 `json:"reference_irl"`
	NewIRL       float64 `json:"new_irl"`
}

// Validate validates the request. Index value semantics belong to the
// revision calculator.
func (r *ApplyRevisionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Year <= 0 {
		return dErrors.New(dErrors.CodeValidation, "year is required")
	}
	r.IRLQuarter = strings.TrimSpace(r.IRLQuarter)
	if r.IRLQuarter == "" {
		return dErrors.New(dErrors.CodeValidation, "irl_quarter is required")
	}
	return nil
}

// RegularizationRequest is the HTTP request body for POST
// /leases/{leaseID}/regularizations.
type RegularizationRequest struct {
	Year                int                 `json:"year"`
	ProvisionsCollected float64             `json:"provisions_collected"`
	Lines               []ChargeLineRequest `json:"lines"`

	parsedLines []regularization.ChargeLine
}

// ChargeLineRequest is one annual charge item.
type ChargeLineRequest struct {
	Label       string  `json:"label"`
	Amount      float64 `json:"amount"`
	Recoverable bool    `json:"recoverable"`
}

// Validate validates and parses the request.
func (r *RegularizationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Year <= 0 {
		return dErrors.New(dErrors.CodeValidation, "year is required")
	}
	if r.ProvisionsCollected < 0 {
		return dErrors.New(dErrors.CodeValidation, "provisions_collected cannot be negative")
	}

	r.parsedLines = make([]regularization.ChargeLine, 0, len(r.Lines))
	for _, line := range r.Lines {
		label := strings.TrimSpace(line.Label)
		if label == "" {
			return dErrors.New(dErrors.CodeValidation, "charge line label is required")
		}
		if line.Amount < 0 {
			return dErrors.Newf(dErrors.CodeValidation, "charge line %q cannot have a negative amount", label)
		}
		r.parsedLines = append(r.parsedLines, regularization.ChargeLine{
			Label:       label,
			Amount:      line.Amount,
			Recoverable: line.Recoverable,
		})
	}
	return nil
}

// SettlementRequest is the HTTP request body for POST /leases/{leaseID}/settlement.
type SettlementRequest struct {
	RetainedAmount          float64  `json:"retained_amount"`
	RetainedReasons         []string `json:"retained_reasons,omitempty"`
	RestitutionDeadlineDays int      `json:"restitution_deadline_days,omitempty"`
}

// Validate validates the request. Retained-versus-deposit comparison belongs
// to the settlement calculator.
func (r *SettlementRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.RetainedAmount < 0 {
		return dErrors.New(dErrors.CodeValidation, "retained_amount cannot be negative")
	}
	if r.RetainedAmount > 0 && len(r.RetainedReasons) == 0 {
		return dErrors.New(dErrors.CodeValidation, "retained_reasons are required when an amount is retained")
	}
	if r.RestitutionDeadlineDays < 0 {
		return dErrors.New(dErrors.CodeValidation, "restitution_deadline_days cannot be negative")
	}
	return nil
}

package service

import (
	"context"
	"time"

	"locatio/internal/event"
	"locatio/internal/lease/models"
	"locatio/internal/revision"
	"locatio/internal/signature"
	"locatio/pkg/domain"
	dErrors "locatio/pkg/domain-errors"
	"locatio/pkg/requestcontext"
)

// CreateLeaseRequest carries everything needed to open a draft lease.
type CreateLeaseRequest struct {
	OwnerID          domain.OwnerID
	TenantID         domain.TenantID
	PropertyID       domain.PropertyID
	StartDate        time.Time
	EndDate          *time.Time
	MonthlyRent      float64
	ChargesProvision float64
	DepositAmount    float64
	SignatureMethod  models.SignatureMethod
	RevisionAnchor   revision.Anchor
}

// CreateLease opens a new draft lease with empty signature states.
func (s *Service) CreateLease(ctx context.Context, req CreateLeaseRequest) (*models.Lease, error) {
	lease, err := models.NewLease(
		domain.NewLeaseID(),
		req.OwnerID, req.TenantID, req.PropertyID,
		req.StartDate, req.EndDate,
		req.MonthlyRent, req.ChargesProvision, req.DepositAmount,
		req.SignatureMethod, req.RevisionAnchor,
		requestcontext.Now(ctx),
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid lease")
		}
		return nil, err
	}

	if err := s.leases.Create(ctx, lease); err != nil {
		return nil, wrapLeaseErr(err)
	}

	s.logAudit(ctx, "lease.created", "lease_id", lease.ID.String())
	s.emit(ctx, event.Event{Type: event.TypeLeaseCreated, LeaseID: lease.ID})
	if s.metrics != nil {
		s.metrics.LeasesCreated.Inc()
	}
	return lease, nil
}

// GetLease fetches one lease by id.
func (s *Service) GetLease(ctx context.Context, leaseID domain.LeaseID) (*models.Lease, error) {
	if leaseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "lease id is required")
	}
	lease, err := s.leases.FindByID(ctx, leaseID)
	if err != nil {
		return nil, wrapLeaseErr(err)
	}
	return lease, nil
}

// ListLeases returns all leases ordered by creation time.
func (s *Service) ListLeases(ctx context.Context) ([]*models.Lease, error) {
	leases, err := s.leases.List(ctx)
	if err != nil {
		return nil, wrapLeaseErr(err)
	}
	return leases, nil
}

// SendForSignature starts an electronic signature round: it creates a
// provider envelope for the lease document and stores the envelope id on
// the lease, clearing any previous round's terminal failure.
func (s *Service) SendForSignature(ctx context.Context, leaseID domain.LeaseID, document []byte, signers []signature.Signer) (*models.Lease, error) {
	if leaseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "lease id is required")
	}
	if s.provider == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "no signature provider configured")
	}

	ctx, span := s.startSpan(ctx, "LeaseService.SendForSignature", leaseID)
	defer span.End()

	// Cheap pre-check before paying for a provider round trip; Execute
	// re-validates under the lock.
	lease, err := s.leases.FindByID(ctx, leaseID)
	if err != nil {
		return nil, wrapLeaseErr(err)
	}
	if err := lease.CanSend(); err != nil {
		return nil, err
	}

	envelopeID, err := s.provider.CreateEnvelope(ctx, document, signers)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "signature provider rejected envelope")
	}

	now := requestcontext.Now(ctx)
	updated, err := s.leases.Execute(ctx, leaseID,
		func(l *models.Lease) error { return l.CanSend() },
		func(l *models.Lease) { l.ApplyEnvelope(envelopeID, now) },
	)
	if err != nil {
		return nil, wrapLeaseErr(err)
	}

	s.logAudit(ctx, "lease.sent_for_signature",
		"lease_id", leaseID.String(), "envelope_id", envelopeID)
	return updated, nil
}

// RecordSignature records one party's signature evidence and advances
// the lease status. Recording a signature the party already gave is an
// idempotent no-op. Both concurrent submissions serialize through the
// store's Execute lock, so the activation transition runs exactly once.
func (s *Service) RecordSignature(ctx context.Context, leaseID domain.LeaseID, party models.SignerRole, method models.SignatureMethod, evidenceRef string) (*models.Lease, error) {
	if leaseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "lease id is required")
	}
	if method != models.MethodElectronic && evidenceRef == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "manual signatures require an evidence document reference")
	}

	ctx, span := s.startSpan(ctx, "LeaseService.RecordSignature", leaseID)
	defer span.End()

	now := requestcontext.Now(ctx)
	var wasActive, alreadySigned bool
	updated, err := s.leases.Execute(ctx, leaseID,
		func(l *models.Lease) error {
			wasActive = l.IsActive()
			alreadySigned = l.Signatures.ByRole(party).Signed
			return l.CanRecordSignature(party, method)
		},
		func(l *models.Lease) { l.ApplySignature(party, evidenceRef, now) },
	)
	if err != nil {
		return nil, wrapLeaseErr(err)
	}

	if alreadySigned {
		return updated, nil
	}

	s.logAudit(ctx, "lease.signature_recorded",
		"lease_id", leaseID.String(), "party", string(party), "method", string(method))
	s.emit(ctx, event.Event{
		Type:    event.TypeSignatureRecorded,
		LeaseID: leaseID,
		Data:    map[string]any{"party": string(party), "method": string(method)},
	})
	if s.metrics != nil {
		s.metrics.SignaturesRecorded.WithLabelValues(string(party), string(method)).Inc()
	}

	if !wasActive && updated.IsActive() {
		s.onActivated(ctx, updated)
	}
	return updated, nil
}

// ReconcileProviderStatus applies the vendor's envelope status to the
// lease. When no status is supplied the provider is polled for the
// current one.
func (s *Service) ReconcileProviderStatus(ctx context.Context, leaseID domain.LeaseID, status models.ProviderStatus) (*models.Lease, error) {
	if leaseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "lease id is required")
	}

	ctx, span := s.startSpan(ctx, "LeaseService.ReconcileProviderStatus", leaseID)
	defer span.End()

	if status == "" {
		if s.provider == nil {
			return nil, dErrors.New(dErrors.CodeInternal, "no signature provider configured")
		}
		lease, err := s.leases.FindByID(ctx, leaseID)
		if err != nil {
			return nil, wrapLeaseErr(err)
		}
		if err := lease.CanReconcileProviderStatus(models.ProviderStatusSent); err != nil {
			return nil, err
		}
		status, err = s.provider.GetStatus(ctx, lease.EnvelopeID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "signature provider status poll failed")
		}
	}

	now := requestcontext.Now(ctx)
	var wasActive bool
	updated, err := s.leases.Execute(ctx, leaseID,
		func(l *models.Lease) error {
			wasActive = l.IsActive()
			return l.CanReconcileProviderStatus(status)
		},
		func(l *models.Lease) { l.ApplyProviderStatus(status, now) },
	)
	if err != nil {
		return nil, wrapLeaseErr(err)
	}

	s.logAudit(ctx, "lease.provider_status_reconciled",
		"lease_id", leaseID.String(), "provider_status", string(status))
	if s.metrics != nil {
		s.metrics.ProviderReconciliations.WithLabelValues(string(status)).Inc()
	}

	if !wasActive && updated.IsActive() {
		s.onActivated(ctx, updated)
	}
	return updated, nil
}

// ExpireLease transitions an active lease whose end date has passed to
// expired. The scheduler's daily sweep is the usual caller.
func (s *Service) ExpireLease(ctx context.Context, leaseID domain.LeaseID) (*models.Lease, error) {
	if leaseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "lease id is required")
	}
	today := requestcontext.Now(ctx)
	updated, err := s.leases.Execute(ctx, leaseID,
		func(l *models.Lease) error { return l.CanExpire(today) },
		func(l *models.Lease) { l.ApplyExpiry(today) },
	)
	if err != nil {
		return nil, wrapLeaseErr(err)
	}

	s.logAudit(ctx, "lease.expired", "lease_id", leaseID.String())
	s.emit(ctx, event.Event{Type: event.TypeLeaseExpired, LeaseID: leaseID})
	if s.metrics != nil {
		s.metrics.LeasesExpired.Inc()
	}
	return updated, nil
}

// DownloadSignedDocument fetches the executed document from the signature
// provider. Only a fully signed electronic envelope has one.
func (s *Service) DownloadSignedDocument(ctx context.Context, leaseID domain.LeaseID) ([]byte, error) {
	if leaseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "lease id is required")
	}
	if s.provider == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "no signature provider configured")
	}

	ctx, span := s.startSpan(ctx, "LeaseService.DownloadSignedDocument", leaseID)
	defer span.End()

	lease, err := s.leases.FindByID(ctx, leaseID)
	if err != nil {
		return nil, wrapLeaseErr(err)
	}
	if lease.SignatureMethod != models.MethodElectronic {
		return nil, dErrors.Newf(dErrors.CodeMethodMismatch, "lease uses %s signatures; there is no provider document", lease.SignatureMethod)
	}
	if lease.EnvelopeID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "no signature envelope has been created for this lease")
	}
	if !lease.Signatures.BothSigned() {
		return nil, dErrors.New(dErrors.CodeConflict, "envelope is not fully signed yet")
	}

	document, err := s.provider.DownloadSigned(ctx, lease.EnvelopeID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "signature provider document download failed")
	}
	return document, nil
}

func (s *Service) onActivated(ctx context.Context, lease *models.Lease) {
	s.logAudit(ctx, "lease.activated", "lease_id", lease.ID.String())
	s.emit(ctx, event.Event{
		Type:    event.TypeLeaseActivated,
		LeaseID: lease.ID,
		Data:    map[string]any{"monthly_rent": lease.MonthlyRent},
	})
	if s.metrics != nil {
		s.metrics.LeasesActivated.Inc()
	}
}

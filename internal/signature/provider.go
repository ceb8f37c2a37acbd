package signature

//go:generate mockgen -source=provider.go -destination=mocks/mocks.go -package=mocks Provider

import (
	"context"

	"locatio/internal/lease/models"
)

// Signer identifies one recipient of a signature envelope.
type Signer struct {
	Role  models.SignerRole
	Name  string
	Email string
}

// Provider is the electronic signature vendor capability. The core only
// consumes the envelope status vocabulary; polling cadence, retries and
// webhooks belong to the caller.
type Provider interface {
	// CreateEnvelope submits the lease document to the vendor and returns
	// the envelope id used for all later status and download calls.
	CreateEnvelope(ctx context.Context, document []byte, signers []Signer) (string, error)

	// GetStatus reports the envelope's current provider status.
	GetStatus(ctx context.Context, envelopeID string) (models.ProviderStatus, error)

	// DownloadSigned fetches the fully signed document.
	DownloadSigned(ctx context.Context, envelopeID string) ([]byte, error)
}

//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"locatio/internal/lease/models"
	leasestore "locatio/internal/lease/store"
	"locatio/internal/revision"
	"locatio/pkg/domain"
	"locatio/pkg/platform/sentinel"
	"locatio/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *leasestore.PostgresStore
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = leasestore.NewPostgresStore(s.postgres.DB)
	s.now = time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "leases")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newLease(method models.SignatureMethod) *models.Lease {
	lease, err := models.NewLease(
		domain.NewLeaseID(),
		domain.OwnerID(uuid.New()),
		domain.TenantID(uuid.New()),
		domain.PropertyID(uuid.New()),
		time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
		nil,
		850, 120, 850,
		method,
		revision.Anchor{Month: time.April, Day: 1},
		s.now,
	)
	s.Require().NoError(err)
	return lease
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	lease := s.newLease(models.MethodManualPhysical)
	s.Require().NoError(s.store.Create(ctx, lease))

	found, err := s.store.FindByID(ctx, lease.ID)
	s.Require().NoError(err)
	s.Equal(lease.ID, found.ID)
	s.Equal(models.StatusDraft, found.Status)
	s.True(lease.StartDate.Equal(found.StartDate), "start date mismatch: %s vs %s", lease.StartDate, found.StartDate)
	s.Equal(lease.RevisionAnchor, found.RevisionAnchor)
	s.Nil(found.EndDate)
}

func (s *PostgresStoreSuite) TestFindByIDNotFound() {
	_, err := s.store.FindByID(context.Background(), domain.NewLeaseID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestExecutePersistsSignatureAndVersion() {
	ctx := context.Background()
	lease := s.newLease(models.MethodManualPhysical)
	s.Require().NoError(s.store.Create(ctx, lease))

	updated, err := s.store.Execute(ctx, lease.ID,
		func(l *models.Lease) error {
			return l.CanRecordSignature(models.SignerOwner, models.MethodManualPhysical)
		},
		func(l *models.Lease) { l.ApplySignature(models.SignerOwner, "doc", s.now) },
	)
	s.Require().NoError(err)
	s.Equal(2, updated.Version)

	found, err := s.store.FindByID(ctx, lease.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusSignedByOwner, found.Status)
	s.True(found.Signatures.Owner.Signed)
	s.Equal("doc", found.Signatures.Owner.EvidenceRef)
}

// TestConcurrentSignatures verifies the FOR UPDATE row lock serializes a
// double-signature race: both writes land and exactly one of them
// performs the activation transition.
func (s *PostgresStoreSuite) TestConcurrentSignatures() {
	ctx := context.Background()
	lease := s.newLease(models.MethodManualPhysical)
	s.Require().NoError(s.store.Create(ctx, lease))

	var wg sync.WaitGroup
	sign := func(party models.SignerRole, evidence string) {
		defer wg.Done()
		_, err := s.store.Execute(ctx, lease.ID,
			func(l *models.Lease) error {
				return l.CanRecordSignature(party, models.MethodManualPhysical)
			},
			func(l *models.Lease) { l.ApplySignature(party, evidence, s.now) },
		)
		s.NoError(err)
	}
	wg.Add(2)
	go sign(models.SignerOwner, "doc-owner")
	go sign(models.SignerTenant, "doc-tenant")
	wg.Wait()

	final, err := s.store.FindByID(ctx, lease.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusActive, final.Status)
	s.True(final.Signatures.BothSigned())
	s.Equal(3, final.Version)
}

func (s *PostgresStoreSuite) TestExecuteValidationFailureRollsBack() {
	ctx := context.Background()
	lease := s.newLease(models.MethodElectronic)
	s.Require().NoError(s.store.Create(ctx, lease))

	_, err := s.store.Execute(ctx, lease.ID,
		func(l *models.Lease) error {
			return l.CanRecordSignature(models.SignerOwner, models.MethodManualPhysical)
		},
		func(l *models.Lease) { l.ApplySignature(models.SignerOwner, "doc", s.now) },
	)
	s.Require().Error(err)

	found, findErr := s.store.FindByID(ctx, lease.ID)
	s.Require().NoError(findErr)
	s.Equal(1, found.Version)
	s.False(found.Signatures.Owner.Signed)
}

func (s *PostgresStoreSuite) TestListOrderedByCreation() {
	ctx := context.Background()
	first := s.newLease(models.MethodManualPhysical)
	second := s.newLease(models.MethodElectronic)
	second.CreatedAt = s.now.Add(time.Minute)
	s.Require().NoError(s.store.Create(ctx, first))
	s.Require().NoError(s.store.Create(ctx, second))

	leases, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(leases, 2)
	s.Equal(first.ID, leases[0].ID)
	s.Equal(second.ID, leases[1].ID)
}

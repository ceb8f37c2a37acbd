package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"locatio/internal/lease/models"
	"locatio/internal/revision"
	"locatio/pkg/domain"
	"locatio/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	s.now = time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) newLease(method models.SignatureMethod) *models.Lease {
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

func (s *InMemoryStoreSuite) TestCreateAndFind() {
	lease := s.newLease(models.MethodManualPhysical)
	s.Require().NoError(s.store.Create(s.ctx, lease))

	found, err := s.store.FindByID(s.ctx, lease.ID)
	s.Require().NoError(err)
	s.Equal(lease.ID, found.ID)
	s.Equal(models.StatusDraft, found.Status)
}

func (s *InMemoryStoreSuite) TestCreateDuplicate() {
	lease := s.newLease(models.MethodManualPhysical)
	s.Require().NoError(s.store.Create(s.ctx, lease))
	err := s.store.Create(s.ctx, lease)
	s.ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *InMemoryStoreSuite) TestFindByIDNotFound() {
	_, err := s.store.FindByID(s.ctx, domain.NewLeaseID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestFindHandsOutClones() {
	lease := s.newLease(models.MethodManualPhysical)
	s.Require().NoError(s.store.Create(s.ctx, lease))

	found, err := s.store.FindByID(s.ctx, lease.ID)
	s.Require().NoError(err)
	found.Status = models.StatusActive

	again, err := s.store.FindByID(s.ctx, lease.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusDraft, again.Status)
}

func (s *InMemoryStoreSuite) TestExecuteBumpsVersion() {
	lease := s.newLease(models.MethodManualPhysical)
	s.Require().NoError(s.store.Create(s.ctx, lease))

	updated, err := s.store.Execute(s.ctx, lease.ID,
		func(l *models.Lease) error { return l.CanRecordSignature(models.SignerOwner, models.MethodManualPhysical) },
		func(l *models.Lease) { l.ApplySignature(models.SignerOwner, "doc", s.now) },
	)
	s.Require().NoError(err)
	s.Equal(2, updated.Version)
	s.Equal(models.StatusSignedByOwner, updated.Status)
}

func (s *InMemoryStoreSuite) TestExecuteValidationFailureLeavesStateUntouched() {
	lease := s.newLease(models.MethodElectronic)
	s.Require().NoError(s.store.Create(s.ctx, lease))

	_, err := s.store.Execute(s.ctx, lease.ID,
		func(l *models.Lease) error { return l.CanRecordSignature(models.SignerOwner, models.MethodManualPhysical) },
		func(l *models.Lease) { l.ApplySignature(models.SignerOwner, "doc", s.now) },
	)
	s.Require().Error(err)

	found, findErr := s.store.FindByID(s.ctx, lease.ID)
	s.Require().NoError(findErr)
	s.Equal(1, found.Version)
	s.False(found.Signatures.Owner.Signed)
}

func (s *InMemoryStoreSuite) TestExecuteNotFound() {
	_, err := s.store.Execute(s.ctx, domain.NewLeaseID(),
		func(*models.Lease) error { return nil },
		func(*models.Lease) {},
	)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// Concurrent signature submissions for both parties must serialize: one
// of the two Execute calls observes the other's signature and performs
// the activation transition.
func (s *InMemoryStoreSuite) TestExecuteSerializesConcurrentSignatures() {
	lease := s.newLease(models.MethodManualPhysical)
	s.Require().NoError(s.store.Create(s.ctx, lease))

	var wg sync.WaitGroup
	sign := func(party models.SignerRole, evidence string) {
		defer wg.Done()
		_, err := s.store.Execute(s.ctx, lease.ID,
			func(l *models.Lease) error { return l.CanRecordSignature(party, models.MethodManualPhysical) },
			func(l *models.Lease) { l.ApplySignature(party, evidence, s.now) },
		)
		s.NoError(err)
	}
	wg.Add(2)
	go sign(models.SignerOwner, "doc-owner")
	go sign(models.SignerTenant, "doc-tenant")
	wg.Wait()

	final, err := s.store.FindByID(s.ctx, lease.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusActive, final.Status)
	s.True(final.Signatures.BothSigned())
	s.Equal(3, final.Version)
}

func (s *InMemoryStoreSuite) TestListOrderedByCreation() {
	first := s.newLease(models.MethodManualPhysical)
	second := s.newLease(models.MethodElectronic)
	second.CreatedAt = s.now.Add(time.Minute)
	s.Require().NoError(s.store.Create(s.ctx, first))
	s.Require().NoError(s.store.Create(s.ctx, second))

	leases, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(leases, 2)
	s.Equal(first.ID, leases[0].ID)
	s.Equal(second.ID, leases[1].ID)
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

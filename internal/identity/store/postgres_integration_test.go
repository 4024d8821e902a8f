//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"stamply/internal/identity"
	"stamply/internal/identity/store"
	"stamply/pkg/platform/sentinel"
	"stamply/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "punchcards", "identities"))
}

func newTestIdentity(username string) identity.Identity {
	return identity.Identity{
		ID:              uuid.New(),
		Username:        username,
		Email:           username + "@example.is",
		PasswordHash:    "$2a$04$notarealhashnotarealhashnotareal",
		Credential:      identity.NewProvisionalCredential(),
		CredentialState: identity.CredentialProvisional,
		Age:             30,
		Gender:          "other",
		CreatedAt:       time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	ident := newTestIdentity("jon")
	s.Require().NoError(s.store.Create(ctx, ident))

	byID, err := s.store.FindByID(ctx, ident.ID)
	s.Require().NoError(err)
	s.Equal(ident.Username, byID.Username)
	s.Equal(identity.CredentialProvisional, byID.CredentialState)

	byName, err := s.store.FindByUsername(ctx, "jon")
	s.Require().NoError(err)
	s.Equal(ident.ID, byName.ID)

	byCred, err := s.store.FindByCredential(ctx, ident.Credential)
	s.Require().NoError(err)
	s.Equal(ident.ID, byCred.ID)
}

func (s *PostgresStoreSuite) TestUniqueConstraints() {
	ctx := context.Background()
	ident := newTestIdentity("jon")
	s.Require().NoError(s.store.Create(ctx, ident))

	dupUsername := newTestIdentity("jon")
	s.ErrorIs(s.store.Create(ctx, dupUsername), sentinel.ErrConflict)

	dupEmail := newTestIdentity("not-jon")
	dupEmail.Email = ident.Email
	s.ErrorIs(s.store.Create(ctx, dupEmail), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestNotFound() {
	ctx := context.Background()
	_, err := s.store.FindByID(ctx, uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByUsername(ctx, "ghost")
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByCredential(ctx, "prov-"+uuid.NewString())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestActivatePromotesOnce() {
	ctx := context.Background()
	ident := newTestIdentity("jon")
	s.Require().NoError(s.store.Create(ctx, ident))

	first := identity.NewCredential()
	promoted, err := s.store.Activate(ctx, "jon", first)
	s.Require().NoError(err)
	s.True(promoted)

	got, err := s.store.FindByUsername(ctx, "jon")
	s.Require().NoError(err)
	s.Equal(first, got.Credential)
	s.Equal(identity.CredentialActive, got.CredentialState)

	// Re-delivered event: the state predicate matches zero rows, so the
	// credential must not rotate.
	promoted, err = s.store.Activate(ctx, "jon", identity.NewCredential())
	s.Require().NoError(err)
	s.False(promoted)

	got, err = s.store.FindByUsername(ctx, "jon")
	s.Require().NoError(err)
	s.Equal(first, got.Credential)
}

func (s *PostgresStoreSuite) TestActivateUnknownUsername() {
	_, err := s.store.Activate(context.Background(), "ghost", identity.NewCredential())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentActivation drives the dedup guard from many goroutines at
// once: exactly one promotion may win.
func (s *PostgresStoreSuite) TestConcurrentActivation() {
	ctx := context.Background()
	ident := newTestIdentity("jon")
	s.Require().NoError(s.store.Create(ctx, ident))

	const goroutines = 50
	var wg sync.WaitGroup
	var promotions atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			promoted, err := s.store.Activate(ctx, "jon", identity.NewCredential())
			if err == nil && promoted {
				promotions.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), promotions.Load(), "exactly one activation should win")

	got, err := s.store.FindByUsername(ctx, "jon")
	s.Require().NoError(err)
	s.Equal(identity.CredentialActive, got.CredentialState)
}

func (s *PostgresStoreSuite) TestListOrdersByCreation() {
	ctx := context.Background()
	first := newTestIdentity("a")
	first.CreatedAt = time.Now().Add(-time.Hour)
	second := newTestIdentity("b")
	s.Require().NoError(s.store.Create(ctx, second))
	s.Require().NoError(s.store.Create(ctx, first))

	idents, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(idents, 2)
	s.Equal("a", idents[0].Username)
	s.Equal("b", idents[1].Username)
}

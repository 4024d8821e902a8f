package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"stamply/internal/identity"
	"stamply/internal/identity/events"
	"stamply/internal/identity/service/mocks"
	"stamply/internal/platform/logger"
	"stamply/pkg/platform/sentinel"
)

func newService(t *testing.T) (*Service, *mocks.MockStore, *mocks.MockPublisher) {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	publisher := mocks.NewMockPublisher(ctrl)
	svc := New(store, publisher, nil, logger.New(0))
	return svc, store, publisher
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates provisional identity and publishes event", func(t *testing.T) {
		svc, store, publisher := newService(t)

		var created identity.Identity
		store.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, ident identity.Identity) error {
				created = ident
				return nil
			})
		publisher.EXPECT().Produce(gomock.Any(), events.TopicIdentity, []byte("hrafn"), gomock.Any()).
			Return(nil)

		ident, err := svc.Register(ctx, RegisterParams{
			Username: "hrafn",
			Email:    "hrafn@example.is",
			Password: "leyndarmal",
		})
		require.NoError(t, err)

		assert.Equal(t, identity.CredentialProvisional, ident.CredentialState)
		assert.NotEmpty(t, ident.Credential)
		assert.True(t, strings.HasPrefix(ident.Credential, "prov-"))
		assert.Equal(t, created.Credential, ident.Credential)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(ident.PasswordHash), []byte("leyndarmal")))
	})

	t.Run("publish failure does not fail registration", func(t *testing.T) {
		svc, store, publisher := newService(t)

		store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		publisher.EXPECT().Produce(gomock.Any(), events.TopicIdentity, gomock.Any(), gomock.Any()).
			Return(errors.New("broker down"))

		ident, err := svc.Register(ctx, RegisterParams{
			Username: "freyja",
			Email:    "freyja@example.is",
			Password: "leyndarmal",
		})
		require.NoError(t, err)
		assert.Equal(t, identity.CredentialProvisional, ident.CredentialState)
	})

	t.Run("duplicate username surfaces conflict", func(t *testing.T) {
		svc, store, _ := newService(t)
		store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict)

		_, err := svc.Register(ctx, RegisterParams{
			Username: "hrafn",
			Email:    "other@example.is",
			Password: "leyndarmal",
		})
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("short password rejected before any store call", func(t *testing.T) {
		svc, _, _ := newService(t)
		_, err := svc.Register(ctx, RegisterParams{
			Username: "x",
			Email:    "x@example.is",
			Password: "abc",
		})
		assert.ErrorIs(t, err, sentinel.ErrInvalidConfig)
	})
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()

	t.Run("active credential maps to identity", func(t *testing.T) {
		svc, store, _ := newService(t)
		store.EXPECT().FindByCredential(gomock.Any(), "cred-1").
			Return(identity.Identity{Username: "hrafn", CredentialState: identity.CredentialActive}, nil)

		ident, err := svc.Authorize(ctx, "cred-1")
		require.NoError(t, err)
		assert.Equal(t, "hrafn", ident.Username)
	})

	t.Run("provisional credential rejected even though it exists", func(t *testing.T) {
		svc, store, _ := newService(t)
		store.EXPECT().FindByCredential(gomock.Any(), "prov-1").
			Return(identity.Identity{Username: "hrafn", CredentialState: identity.CredentialProvisional}, nil)

		_, err := svc.Authorize(ctx, "prov-1")
		assert.ErrorIs(t, err, sentinel.ErrUnauthorized)
	})

	t.Run("unknown credential rejected", func(t *testing.T) {
		svc, store, _ := newService(t)
		store.EXPECT().FindByCredential(gomock.Any(), "nope").
			Return(identity.Identity{}, sentinel.ErrNotFound)

		_, err := svc.Authorize(ctx, "nope")
		assert.ErrorIs(t, err, sentinel.ErrUnauthorized)
	})

	t.Run("empty credential rejected without lookup", func(t *testing.T) {
		svc, _, _ := newService(t)
		_, err := svc.Authorize(ctx, "")
		assert.ErrorIs(t, err, sentinel.ErrUnauthorized)
	})
}

func TestCredential(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("leyndarmal"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash fixture: %v", err)
	}

	t.Run("active identity returns its credential", func(t *testing.T) {
		svc, store, _ := newService(t)
		store.EXPECT().FindByUsername(gomock.Any(), "hrafn").
			Return(identity.Identity{
				Username:        "hrafn",
				PasswordHash:    string(hash),
				Credential:      "cred-1",
				CredentialState: identity.CredentialActive,
			}, nil)

		cred, err := svc.Credential(ctx, "hrafn", "leyndarmal")
		require.NoError(t, err)
		assert.Equal(t, "cred-1", cred)
	})

	t.Run("provisional identity yields pending, not the placeholder", func(t *testing.T) {
		svc, store, _ := newService(t)
		store.EXPECT().FindByUsername(gomock.Any(), "hrafn").
			Return(identity.Identity{
				Username:        "hrafn",
				PasswordHash:    string(hash),
				Credential:      "prov-1",
				CredentialState: identity.CredentialProvisional,
			}, nil)

		_, err := svc.Credential(ctx, "hrafn", "leyndarmal")
		assert.ErrorIs(t, err, ErrCredentialPending)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		svc, store, _ := newService(t)
		store.EXPECT().FindByUsername(gomock.Any(), "hrafn").
			Return(identity.Identity{PasswordHash: string(hash)}, nil)

		_, err := svc.Credential(ctx, "hrafn", "wrong")
		assert.ErrorIs(t, err, sentinel.ErrUnauthorized)
	})

	t.Run("unknown username rejected", func(t *testing.T) {
		svc, store, _ := newService(t)
		store.EXPECT().FindByUsername(gomock.Any(), "ghost").
			Return(identity.Identity{}, sentinel.ErrNotFound)

		_, err := svc.Credential(ctx, "ghost", "leyndarmal")
		assert.ErrorIs(t, err, sentinel.ErrUnauthorized)
	})
}

func TestReissue(t *testing.T) {
	ctx := context.Background()

	t.Run("republishes event for stuck identity", func(t *testing.T) {
		svc, store, publisher := newService(t)
		store.EXPECT().FindByUsername(gomock.Any(), "hrafn").
			Return(identity.Identity{Username: "hrafn"}, nil)
		publisher.EXPECT().Produce(gomock.Any(), events.TopicIdentity, []byte("hrafn"), gomock.Any()).
			Return(nil)

		assert.NoError(t, svc.Reissue(ctx, "hrafn"))
	})

	t.Run("publish failure surfaces, unlike registration", func(t *testing.T) {
		svc, store, publisher := newService(t)
		store.EXPECT().FindByUsername(gomock.Any(), "hrafn").
			Return(identity.Identity{Username: "hrafn"}, nil)
		publisher.EXPECT().Produce(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("broker down"))

		assert.Error(t, svc.Reissue(ctx, "hrafn"))
	})

	t.Run("unknown identity propagates not found", func(t *testing.T) {
		svc, store, _ := newService(t)
		store.EXPECT().FindByUsername(gomock.Any(), "ghost").
			Return(identity.Identity{}, sentinel.ErrNotFound)

		assert.ErrorIs(t, svc.Reissue(ctx, "ghost"), sentinel.ErrNotFound)
	})
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	current := identity.Identity{
		ID:              id,
		Username:        "hrafn",
		Email:           "hrafn@example.is",
		PasswordHash:    "old-hash",
		Credential:      "some-credential",
		CredentialState: identity.CredentialActive,
	}

	t.Run("merges non-empty fields and rehashes password", func(t *testing.T) {
		svc, store, _ := newService(t)
		store.EXPECT().FindByID(gomock.Any(), id).Return(current, nil)

		var updated identity.Identity
		store.EXPECT().Update(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, ident identity.Identity) error {
				updated = ident
				return nil
			})

		got, err := svc.UpdateProfile(ctx, id, UpdateParams{
			Email:    "new@example.is",
			Password: "nyttlykilord",
		})
		require.NoError(t, err)

		assert.Equal(t, "new@example.is", got.Email)
		assert.Equal(t, "hrafn", got.Username, "username is not updatable")
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("nyttlykilord")))
		assert.Equal(t, current.Credential, updated.Credential, "profile updates never touch the credential")
		assert.Equal(t, current.CredentialState, updated.CredentialState)
	})

	t.Run("short new password rejected before any write", func(t *testing.T) {
		svc, store, _ := newService(t)
		store.EXPECT().FindByID(gomock.Any(), id).Return(current, nil)

		_, err := svc.UpdateProfile(ctx, id, UpdateParams{Password: "abc"})
		assert.ErrorIs(t, err, sentinel.ErrInvalidConfig)
	})

	t.Run("unknown identity propagates not found", func(t *testing.T) {
		svc, store, _ := newService(t)
		store.EXPECT().FindByID(gomock.Any(), id).Return(identity.Identity{}, sentinel.ErrNotFound)

		_, err := svc.UpdateProfile(ctx, id, UpdateParams{Email: "x@example.is"})
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

// Package store provides identity persistence. The in-memory implementation
// backs unit tests and doubles as the reference semantics for the postgres
// implementation.
package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"stamply/internal/identity"
	"stamply/pkg/platform/sentinel"
)

// Memory is a map-backed identity store guarded by an RWMutex. It favors
// clarity over performance.
type Memory struct {
	mu         sync.RWMutex
	identities map[uuid.UUID]identity.Identity
}

func NewMemory() *Memory {
	return &Memory{identities: make(map[uuid.UUID]identity.Identity)}
}

func (s *Memory) Create(_ context.Context, ident identity.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.identities {
		if existing.Username == ident.Username || existing.Email == ident.Email {
			return sentinel.ErrConflict
		}
	}
	s.identities[ident.ID] = ident
	return nil
}

func (s *Memory) FindByID(_ context.Context, id uuid.UUID) (identity.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ident, ok := s.identities[id]; ok {
		return ident, nil
	}
	return identity.Identity{}, sentinel.ErrNotFound
}

func (s *Memory) FindByUsername(_ context.Context, username string) (identity.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ident := range s.identities {
		if ident.Username == username {
			return ident, nil
		}
	}
	return identity.Identity{}, sentinel.ErrNotFound
}

func (s *Memory) FindByCredential(_ context.Context, credential string) (identity.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ident := range s.identities {
		if ident.Credential == credential {
			return ident, nil
		}
	}
	return identity.Identity{}, sentinel.ErrNotFound
}

func (s *Memory) Update(_ context.Context, ident identity.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[ident.ID]; !ok {
		return sentinel.ErrNotFound
	}
	for id, existing := range s.identities {
		if id != ident.ID && existing.Email == ident.Email {
			return sentinel.ErrConflict
		}
	}
	s.identities[ident.ID] = ident
	return nil
}

func (s *Memory) List(_ context.Context) ([]identity.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]identity.Identity, 0, len(s.identities))
	for _, ident := range s.identities {
		out = append(out, ident)
	}
	return out, nil
}

// Activate promotes a provisional identity to active with the given
// credential. It reports false without touching the record when the identity
// is already active, which keeps event re-delivery a no-op.
func (s *Memory) Activate(_ context.Context, username, credential string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ident := range s.identities {
		if ident.Username != username {
			continue
		}
		if ident.CredentialState == identity.CredentialActive {
			return false, nil
		}
		ident.Credential = credential
		ident.CredentialState = identity.CredentialActive
		s.identities[id] = ident
		return true, nil
	}
	return false, sentinel.ErrNotFound
}

// Package store provides punch-card persistence.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"stamply/internal/punchcard"
	"stamply/pkg/platform/sentinel"
)

// Memory is a slice-backed punch-card store guarded by an RWMutex. Cards are
// append-only, so a slice is enough.
type Memory struct {
	mu    sync.RWMutex
	cards []punchcard.Punchcard
}

func NewMemory() *Memory {
	return &Memory{}
}

func (s *Memory) Insert(_ context.Context, card punchcard.Punchcard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards = append(s.cards, card)
	return nil
}

func (s *Memory) FindByID(_ context.Context, id uuid.UUID) (punchcard.Punchcard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, card := range s.cards {
		if card.ID == id {
			return card, nil
		}
	}
	return punchcard.Punchcard{}, sentinel.ErrNotFound
}

func (s *Memory) List(_ context.Context) ([]punchcard.Punchcard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]punchcard.Punchcard, len(s.cards))
	copy(out, s.cards)
	return out, nil
}

// ListSince returns the cards issued by company to user at or after the given
// instant. The gate queries this before inserting; there is no lock spanning
// the two calls.
func (s *Memory) ListSince(_ context.Context, companyID, userID uuid.UUID, since time.Time) ([]punchcard.Punchcard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []punchcard.Punchcard
	for _, card := range s.cards {
		if card.CompanyID == companyID && card.UserID == userID && !card.CreatedAt.Before(since) {
			out = append(out, card)
		}
	}
	return out, nil
}

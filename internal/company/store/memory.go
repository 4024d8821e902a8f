// Package store provides company persistence over the primary store.
package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"stamply/internal/company"
	"stamply/pkg/platform/sentinel"
)

// Memory is a map-backed company store guarded by an RWMutex.
type Memory struct {
	mu        sync.RWMutex
	companies map[uuid.UUID]company.Company
}

func NewMemory() *Memory {
	return &Memory{companies: make(map[uuid.UUID]company.Company)}
}

func (s *Memory) Create(_ context.Context, c company.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.companies {
		if existing.Title == c.Title {
			return sentinel.ErrConflict
		}
	}
	s.companies[c.ID] = c
	return nil
}

func (s *Memory) Update(_ context.Context, c company.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	for id, existing := range s.companies {
		if id != c.ID && existing.Title == c.Title {
			return sentinel.ErrConflict
		}
	}
	s.companies[c.ID] = c
	return nil
}

func (s *Memory) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.companies, id)
	return nil
}

func (s *Memory) FindByID(_ context.Context, id uuid.UUID) (company.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.companies[id]; ok {
		return c, nil
	}
	return company.Company{}, sentinel.ErrNotFound
}

func (s *Memory) FindByTitle(_ context.Context, title string) (company.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.companies {
		if c.Title == title {
			return c, nil
		}
	}
	return company.Company{}, sentinel.ErrNotFound
}

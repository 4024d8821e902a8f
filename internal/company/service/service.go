package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stamply/internal/company"
	"stamply/internal/company/search"
)

// Store is the primary persistence surface for companies.
type Store interface {
	Create(ctx context.Context, c company.Company) error
	Update(ctx context.Context, c company.Company) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (company.Company, error)
	FindByTitle(ctx context.Context, title string) (company.Company, error)
}

// Syncer mirrors primary mutations into the search index. Its methods return
// nothing: by contract the index outcome never affects the primary operation.
type Syncer interface {
	OnCreate(ctx context.Context, c company.Company)
	OnUpdate(ctx context.Context, c company.Company)
	OnDelete(ctx context.Context, id uuid.UUID)
}

// CreateParams is the already-validated input from the transport layer.
type CreateParams struct {
	Title                 string
	URL                   string
	Description           string
	PunchcardLifetimeDays int
}

// UpdateParams applies partially: zero values leave the field unchanged,
// except the lifetime which must stay positive whenever it is set.
type UpdateParams struct {
	Title                 string
	URL                   string
	Description           string
	PunchcardLifetimeDays *int
}

// Service owns the company directory. Every mutation is primary-first: the
// row is written (or the write fails and surfaces), then the index follows
// best-effort through the Syncer.
type Service struct {
	store Store
	index search.Index
	sync  Syncer
	now   func() time.Time
}

func New(store Store, index search.Index, sync Syncer) *Service {
	return &Service{store: store, index: index, sync: sync, now: time.Now}
}

// Create inserts a company and mirrors it into the index.
func (s *Service) Create(ctx context.Context, params CreateParams) (company.Company, error) {
	c := company.Company{
		ID:                    uuid.New(),
		Title:                 params.Title,
		URL:                   params.URL,
		Description:           params.Description,
		PunchcardLifetimeDays: params.PunchcardLifetimeDays,
		CreatedAt:             s.now(),
	}
	if err := c.Validate(); err != nil {
		return company.Company{}, err
	}
	if err := s.store.Create(ctx, c); err != nil {
		return company.Company{}, fmt.Errorf("create company: %w", err)
	}
	s.sync.OnCreate(ctx, c)
	return c, nil
}

// Update merges the given fields into the stored company.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (company.Company, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return company.Company{}, fmt.Errorf("find company: %w", err)
	}

	if params.Title != "" {
		c.Title = params.Title
	}
	if params.URL != "" {
		c.URL = params.URL
	}
	if params.Description != "" {
		c.Description = params.Description
	}
	if params.PunchcardLifetimeDays != nil {
		c.PunchcardLifetimeDays = *params.PunchcardLifetimeDays
	}
	if err := c.Validate(); err != nil {
		return company.Company{}, err
	}

	if err := s.store.Update(ctx, c); err != nil {
		return company.Company{}, fmt.Errorf("update company: %w", err)
	}
	s.sync.OnUpdate(ctx, c)
	return c, nil
}

// Delete removes the primary row, then the projection. A failed projection
// delete leaves a ghost in the index; the primary delete still stands.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	s.sync.OnDelete(ctx, id)
	return nil
}

// Get reads from the primary store, never the index.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (company.Company, error) {
	return s.store.FindByID(ctx, id)
}

// List pages the directory out of the search index.
func (s *Service) List(ctx context.Context, page, size int) ([]search.Document, error) {
	return s.index.List(ctx, page, size)
}

// Search queries the index. Results reflect whatever propagation has reached
// it, which may trail the primary store.
func (s *Service) Search(ctx context.Context, query string) ([]search.Document, error) {
	return s.index.Search(ctx, query)
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stamply/internal/company"
	"stamply/internal/platform/metrics"
	"stamply/internal/punchcard"
	"stamply/pkg/platform/sentinel"
)

// Store is the primary persistence surface for punch-cards.
type Store interface {
	Insert(ctx context.Context, card punchcard.Punchcard) error
	FindByID(ctx context.Context, id uuid.UUID) (punchcard.Punchcard, error)
	List(ctx context.Context) ([]punchcard.Punchcard, error)
	ListSince(ctx context.Context, companyID, userID uuid.UUID, since time.Time) ([]punchcard.Punchcard, error)
}

// Service is the issuance window gate.
type Service struct {
	store   Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func New(store Store, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{store: store, metrics: m, logger: logger, now: time.Now}
}

// TryIssue issues a punch-card unless the user already holds one inside the
// company's validity window.
//
// The check and the insert are two store calls with nothing spanning them, so
// two perfectly concurrent attempts for the same pair can both pass the check
// and both insert. The window is computed from a single `now` captured at
// entry, so at least the arithmetic is internally consistent. The company's
// lifetime is validated at configuration time and trusted here.
func (s *Service) TryIssue(ctx context.Context, issuer company.Company, userID uuid.UUID) (punchcard.Punchcard, error) {
	now := s.now()
	windowStart := now.Add(-issuer.Lifetime())

	existing, err := s.store.ListSince(ctx, issuer.ID, userID, windowStart)
	if err != nil {
		return punchcard.Punchcard{}, fmt.Errorf("check punchcard window: %w", err)
	}
	if len(existing) > 0 {
		if s.metrics != nil {
			s.metrics.PunchcardsRejected.Inc()
		}
		return punchcard.Punchcard{}, fmt.Errorf("valid punchcard already exists for this company: %w", sentinel.ErrConflict)
	}

	card := punchcard.Punchcard{
		ID:        uuid.New(),
		CompanyID: issuer.ID,
		UserID:    userID,
		CreatedAt: now,
	}
	if err := s.store.Insert(ctx, card); err != nil {
		return punchcard.Punchcard{}, fmt.Errorf("insert punchcard: %w", err)
	}

	if s.metrics != nil {
		s.metrics.PunchcardsIssued.Inc()
	}
	s.logger.Info("punchcard issued",
		"company_id", issuer.ID,
		"user_id", userID,
		"window_days", issuer.PunchcardLifetimeDays,
	)
	return card, nil
}

// Get looks up a punch-card by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (punchcard.Punchcard, error) {
	return s.store.FindByID(ctx, id)
}

// List returns all punch-cards.
func (s *Service) List(ctx context.Context) ([]punchcard.Punchcard, error) {
	return s.store.List(ctx)
}

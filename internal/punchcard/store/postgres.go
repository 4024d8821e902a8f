package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stamply/internal/punchcard"
	"stamply/pkg/platform/sentinel"
)

// Postgres persists punch-cards in PostgreSQL. The window check runs as a
// separate query before the insert; single-row atomicity is all the store
// promises.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const cardColumns = `id, company_id, user_id, created_at`

func (s *Postgres) Insert(ctx context.Context, card punchcard.Punchcard) error {
	query := `INSERT INTO punchcards (` + cardColumns + `) VALUES ($1, $2, $3, $4)`
	_, err := s.db.ExecContext(ctx, query, card.ID, card.CompanyID, card.UserID, card.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert punchcard: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (punchcard.Punchcard, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM punchcards WHERE id = $1`, id)
	var card punchcard.Punchcard
	if err := row.Scan(&card.ID, &card.CompanyID, &card.UserID, &card.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return punchcard.Punchcard{}, sentinel.ErrNotFound
		}
		return punchcard.Punchcard{}, fmt.Errorf("scan punchcard: %w", err)
	}
	return card, nil
}

func (s *Postgres) List(ctx context.Context) ([]punchcard.Punchcard, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+cardColumns+` FROM punchcards ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list punchcards: %w", err)
	}
	defer rows.Close()
	return scanCards(rows)
}

func (s *Postgres) ListSince(ctx context.Context, companyID, userID uuid.UUID, since time.Time) ([]punchcard.Punchcard, error) {
	query := `
		SELECT ` + cardColumns + ` FROM punchcards
		WHERE company_id = $1 AND user_id = $2 AND created_at >= $3
	`
	rows, err := s.db.QueryContext(ctx, query, companyID, userID, since)
	if err != nil {
		return nil, fmt.Errorf("list punchcards in window: %w", err)
	}
	defer rows.Close()
	return scanCards(rows)
}

func scanCards(rows *sql.Rows) ([]punchcard.Punchcard, error) {
	var out []punchcard.Punchcard
	for rows.Next() {
		var card punchcard.Punchcard
		if err := rows.Scan(&card.ID, &card.CompanyID, &card.UserID, &card.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan punchcard: %w", err)
		}
		out = append(out, card)
	}
	return out, rows.Err()
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"stamply/internal/company"
	"stamply/pkg/platform/sentinel"
)

// Postgres persists companies in PostgreSQL. Title uniqueness is a
// constraint, so concurrent creates with the same title resolve to exactly
// one winner.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const companyColumns = `id, title, url, description, punchcard_lifetime_days, created_at`

func (s *Postgres) Create(ctx context.Context, c company.Company) error {
	query := `
		INSERT INTO companies (` + companyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.Title, c.URL, c.Description, c.PunchcardLifetimeDays, c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, c company.Company) error {
	query := `
		UPDATE companies
		SET title = $2, url = $3, description = $4, punchcard_lifetime_days = $5
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		c.ID, c.Title, c.URL, c.Description, c.PunchcardLifetimeDays,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update company: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (company.Company, error) {
	return s.findBy(ctx, "id = $1", id)
}

func (s *Postgres) FindByTitle(ctx context.Context, title string) (company.Company, error) {
	return s.findBy(ctx, "title = $1", title)
}

func (s *Postgres) findBy(ctx context.Context, predicate string, arg any) (company.Company, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE `+predicate, arg)
	var c company.Company
	err := row.Scan(&c.ID, &c.Title, &c.URL, &c.Description, &c.PunchcardLifetimeDays, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return company.Company{}, sentinel.ErrNotFound
		}
		return company.Company{}, fmt.Errorf("scan company: %w", err)
	}
	return c, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

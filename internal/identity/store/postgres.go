package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"stamply/internal/identity"
	"stamply/pkg/platform/sentinel"
)

// Postgres persists identities in PostgreSQL. Uniqueness of username, email
// and credential is enforced by constraints, not by read-then-write.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const identityColumns = `id, username, email, password_hash, credential, credential_state, age, gender, created_at`

func (s *Postgres) Create(ctx context.Context, ident identity.Identity) error {
	query := `
		INSERT INTO identities (` + identityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		ident.ID,
		ident.Username,
		ident.Email,
		ident.PasswordHash,
		ident.Credential,
		string(ident.CredentialState),
		ident.Age,
		ident.Gender,
		ident.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (identity.Identity, error) {
	return s.findBy(ctx, "id = $1", id)
}

func (s *Postgres) FindByUsername(ctx context.Context, username string) (identity.Identity, error) {
	return s.findBy(ctx, "username = $1", username)
}

func (s *Postgres) FindByCredential(ctx context.Context, credential string) (identity.Identity, error) {
	return s.findBy(ctx, "credential = $1", credential)
}

func (s *Postgres) List(ctx context.Context) ([]identity.Identity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+identityColumns+` FROM identities ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var out []identity.Identity
	for rows.Next() {
		ident, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ident)
	}
	return out, rows.Err()
}

func (s *Postgres) Update(ctx context.Context, ident identity.Identity) error {
	query := `
		UPDATE identities
		SET email = $2, password_hash = $3, age = $4, gender = $5
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		ident.ID, ident.Email, ident.PasswordHash, ident.Age, ident.Gender,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update identity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Activate is the consumer's dedup guard: the state predicate makes the
// promotion conditional, so a re-delivered event updates zero rows instead of
// rotating an already-active credential.
func (s *Postgres) Activate(ctx context.Context, username, credential string) (bool, error) {
	query := `
		UPDATE identities
		SET credential = $2, credential_state = $3
		WHERE username = $1 AND credential_state = $4
	`
	res, err := s.db.ExecContext(ctx, query,
		username,
		credential,
		string(identity.CredentialActive),
		string(identity.CredentialProvisional),
	)
	if err != nil {
		return false, fmt.Errorf("activate identity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("activate identity: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	// Zero rows means either already active or missing; tell them apart.
	var exists bool
	err = s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM identities WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("activate identity: %w", err)
	}
	if !exists {
		return false, sentinel.ErrNotFound
	}
	return false, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Postgres) findBy(ctx context.Context, predicate string, arg any) (identity.Identity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+identityColumns+` FROM identities WHERE `+predicate, arg)
	ident, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return identity.Identity{}, sentinel.ErrNotFound
		}
		return identity.Identity{}, err
	}
	return ident, nil
}

func scanIdentity(row rowScanner) (identity.Identity, error) {
	var ident identity.Identity
	var state string
	err := row.Scan(
		&ident.ID,
		&ident.Username,
		&ident.Email,
		&ident.PasswordHash,
		&ident.Credential,
		&state,
		&ident.Age,
		&ident.Gender,
		&ident.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return identity.Identity{}, err
		}
		return identity.Identity{}, fmt.Errorf("scan identity: %w", err)
	}
	ident.CredentialState = identity.CredentialState(state)
	return ident, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

package punchcard

import (
	"time"

	"github.com/google/uuid"
)

// Punchcard records one issuance of a card by a company to a user. The
// intended invariant is at most one card per (company, user) pair inside the
// company's validity window; enforcement lives in the issuance gate.
type Punchcard struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
}

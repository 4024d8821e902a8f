package company

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"stamply/pkg/platform/sentinel"
)

// Company is an indexed entity: the row in the primary store is authoritative
// and a projection of it is mirrored into the search index best-effort.
type Company struct {
	ID          uuid.UUID
	Title       string
	URL         string
	Description string
	// PunchcardLifetimeDays is the per-issuer validity window. A subject holds
	// at most one punch-card per company inside this window.
	PunchcardLifetimeDays int
	CreatedAt             time.Time
}

// Lifetime returns the validity window as a duration.
func (c Company) Lifetime() time.Duration {
	return time.Duration(c.PunchcardLifetimeDays) * 24 * time.Hour
}

// Validate rejects static misconfiguration at create/update time, so
// issuance never has to deal with a non-positive window.
func (c Company) Validate() error {
	if c.Title == "" {
		return fmt.Errorf("company title is required: %w", sentinel.ErrInvalidConfig)
	}
	if c.Description == "" {
		return fmt.Errorf("company description is required: %w", sentinel.ErrInvalidConfig)
	}
	if c.PunchcardLifetimeDays <= 0 {
		return fmt.Errorf("punchcard lifetime must be positive, got %d: %w",
			c.PunchcardLifetimeDays, sentinel.ErrInvalidConfig)
	}
	return nil
}

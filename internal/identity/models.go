package identity

import (
	"time"

	"github.com/google/uuid"
)

// CredentialState tracks whether an identity's credential is usable. The
// state field is the single source of truth; nothing infers state from the
// shape of the credential string.
type CredentialState string

const (
	// CredentialProvisional is assigned at registration. The credential is
	// structurally valid but rejected by the access gate until the activation
	// consumer promotes it.
	CredentialProvisional CredentialState = "provisional"

	// CredentialActive is the promoted state. Transitions are one-way:
	// provisional to active, never back.
	CredentialActive CredentialState = "active"
)

// provisionalPrefix marks placeholder credentials in logs and debugging
// output. It carries no authorization meaning.
const provisionalPrefix = "prov-"

// Identity is the primary account record. PasswordHash and Credential never
// leave the service layer; transport responses use the public projection.
type Identity struct {
	ID              uuid.UUID
	Username        string
	Email           string
	PasswordHash    string
	Credential      string
	CredentialState CredentialState
	Age             int
	Gender          string
	CreatedAt       time.Time
}

// Active reports whether the identity's credential is usable for
// authenticated actions.
func (i Identity) Active() bool {
	return i.CredentialState == CredentialActive
}

// NewProvisionalCredential returns the placeholder credential assigned at
// registration.
func NewProvisionalCredential() string {
	return provisionalPrefix + uuid.NewString()
}

// NewCredential returns a fresh unguessable credential for promotion.
func NewCredential() string {
	return uuid.NewString()
}

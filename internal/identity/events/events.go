// Package events defines the identity event published to the broker and
// consumed by the credential activation daemon.
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// TopicIdentity is the single logical topic for identity lifecycle events.
// Each consumer type joins its own group so every type sees every event.
const TopicIdentity = "identity-events"

// IdentityCreated is emitted exactly once per registration. Delivery is
// at-least-once, so consumers key their work off Username and stay idempotent.
type IdentityCreated struct {
	Username   string    `json:"username"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Encode serializes the event for the wire.
func (e IdentityCreated) Encode() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode identity created event: %w", err)
	}
	return b, nil
}

// DecodeIdentityCreated parses a wire payload. A payload without a username
// is malformed, not merely empty.
func DecodeIdentityCreated(payload []byte) (IdentityCreated, error) {
	var e IdentityCreated
	if err := json.Unmarshal(payload, &e); err != nil {
		return IdentityCreated{}, fmt.Errorf("decode identity created event: %w", err)
	}
	if e.Username == "" {
		return IdentityCreated{}, fmt.Errorf("identity created event missing username")
	}
	return e, nil
}

// Package consumer holds the credential activation handler run by the
// credentiald daemon. It is the only writer allowed to promote an identity
// from provisional to active.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"stamply/internal/identity"
	"stamply/internal/identity/events"
	"stamply/internal/platform/kafka/consumer"
	"stamply/internal/platform/metrics"
	"stamply/pkg/platform/sentinel"
)

// ActivationStore is the slice of the identity store the handler needs.
type ActivationStore interface {
	Activate(ctx context.Context, username, credential string) (bool, error)
}

// ActivationHandler consumes identity-created events and issues active
// credentials. Delivery is at-least-once, so everything here is idempotent:
// the store-side state predicate guarantees a re-delivered event neither
// errors nor rotates an already-issued credential.
type ActivationHandler struct {
	store   ActivationStore
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewActivationHandler(store ActivationStore, m *metrics.Metrics, logger *slog.Logger) *ActivationHandler {
	return &ActivationHandler{store: store, metrics: m, logger: logger}
}

// Handle processes one identity-created event.
//
// Malformed payloads and unknown identities are dropped with a nil return so
// they commit and never block the partition; there is no dead-letter path.
// Store failures return an error, leaving the event uncommitted for retry.
func (h *ActivationHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	event, err := events.DecodeIdentityCreated(msg.Value)
	if err != nil {
		h.dropped()
		h.logger.Error("discarding malformed identity event",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}

	promoted, err := h.store.Activate(ctx, event.Username, identity.NewCredential())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			h.dropped()
			h.logger.Error("discarding event for unknown identity",
				"username", event.Username,
				"offset", msg.Offset,
			)
			return nil
		}
		return fmt.Errorf("activate %q: %w", event.Username, err)
	}

	if !promoted {
		h.logger.Debug("identity already active, event is a re-delivery",
			"username", event.Username,
			"offset", msg.Offset,
		)
		return nil
	}

	if h.metrics != nil {
		h.metrics.CredentialsActivated.Inc()
	}
	h.logger.Info("credential activated",
		"username", event.Username,
		"emitted_at", event.OccurredAt,
	)
	return nil
}

func (h *ActivationHandler) dropped() {
	if h.metrics != nil {
		h.metrics.ConsumerEventsDropped.Inc()
	}
}

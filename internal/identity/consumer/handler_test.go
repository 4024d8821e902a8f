package consumer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"stamply/internal/identity"
	identityconsumer "stamply/internal/identity/consumer"
	"stamply/internal/identity/events"
	identityservice "stamply/internal/identity/service"
	identitystore "stamply/internal/identity/store"
	"stamply/internal/platform/kafka/consumer"
	"stamply/internal/platform/logger"
)

// The activation handler sits on the consuming side of an at-least-once
// broker, so the suite leans on re-delivery and loss scenarios rather than
// plain happy paths.
type ActivationSuite struct {
	suite.Suite
	store   *identitystore.Memory
	handler *identityconsumer.ActivationHandler
	gate    *identityservice.Service
}

func TestActivationSuite(t *testing.T) {
	suite.Run(t, new(ActivationSuite))
}

func (s *ActivationSuite) SetupTest() {
	log := logger.New(0)
	s.store = identitystore.NewMemory()
	s.handler = identityconsumer.NewActivationHandler(s.store, nil, log)
	s.gate = identityservice.New(s.store, nopPublisher{}, nil, log)
}

func (s *ActivationSuite) register(username string) identity.Identity {
	ident, err := s.gate.Register(context.Background(), identityservice.RegisterParams{
		Username: username,
		Email:    username + "@example.is",
		Password: "leyndarmal",
	})
	s.Require().NoError(err)
	return ident
}

func (s *ActivationSuite) message(username string) *consumer.Message {
	payload, err := events.IdentityCreated{Username: username, OccurredAt: time.Now()}.Encode()
	s.Require().NoError(err)
	return &consumer.Message{Topic: events.TopicIdentity, Key: []byte(username), Value: payload}
}

func (s *ActivationSuite) TestEventPromotesProvisionalIdentity() {
	ctx := context.Background()
	created := s.register("hrafn")

	s.Require().NoError(s.handler.Handle(ctx, s.message("hrafn")))

	promoted, err := s.store.FindByUsername(ctx, "hrafn")
	s.Require().NoError(err)
	s.Equal(identity.CredentialActive, promoted.CredentialState)
	s.NotEqual(created.Credential, promoted.Credential)
	s.NotEmpty(promoted.Credential)
}

func (s *ActivationSuite) TestRedeliveryIsNoOp() {
	ctx := context.Background()
	s.register("hrafn")

	s.Require().NoError(s.handler.Handle(ctx, s.message("hrafn")))
	first, err := s.store.FindByUsername(ctx, "hrafn")
	s.Require().NoError(err)

	// A second copy of the same event must neither error nor rotate the
	// already-issued credential.
	s.Require().NoError(s.handler.Handle(ctx, s.message("hrafn")))
	second, err := s.store.FindByUsername(ctx, "hrafn")
	s.Require().NoError(err)
	s.Equal(first.Credential, second.Credential)
	s.Equal(identity.CredentialActive, second.CredentialState)
}

func (s *ActivationSuite) TestUnknownIdentityIsDroppedWithoutError() {
	// The event is lost; there is no dead-letter path. The nil return keeps
	// the consumer loop alive and commits the message.
	s.NoError(s.handler.Handle(context.Background(), s.message("ghost")))
}

func (s *ActivationSuite) TestMalformedPayloadIsDroppedWithoutError() {
	msg := &consumer.Message{Topic: events.TopicIdentity, Value: []byte("not json")}
	s.NoError(s.handler.Handle(context.Background(), msg))

	msg = &consumer.Message{Topic: events.TopicIdentity, Value: []byte(`{"occurred_at":"2026-01-01T00:00:00Z"}`)}
	s.NoError(s.handler.Handle(context.Background(), msg))
}

// TestIssuanceLifecycle walks the full credential journey: provisional
// rejected, event consumed, fresh credential accepted, stale one still
// rejected.
func (s *ActivationSuite) TestIssuanceLifecycle() {
	ctx := context.Background()
	created := s.register("u1")
	provisional := created.Credential

	_, err := s.gate.Authorize(ctx, provisional)
	s.Error(err, "provisional credential must not pass the gate")

	s.Require().NoError(s.handler.Handle(ctx, s.message("u1")))

	active, err := s.store.FindByUsername(ctx, "u1")
	s.Require().NoError(err)

	ident, err := s.gate.Authorize(ctx, active.Credential)
	s.Require().NoError(err)
	s.Equal("u1", ident.Username)

	_, err = s.gate.Authorize(ctx, provisional)
	s.Error(err, "stale provisional credential must stay rejected")
}

type nopPublisher struct{}

func (nopPublisher) Produce(context.Context, string, []byte, []byte) error { return nil }

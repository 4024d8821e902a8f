package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"stamply/internal/identity"
	"stamply/internal/identity/events"
	"stamply/internal/platform/metrics"
	"stamply/pkg/platform/sentinel"
)

// Store is the primary persistence surface for identities.
type Store interface {
	Create(ctx context.Context, ident identity.Identity) error
	FindByID(ctx context.Context, id uuid.UUID) (identity.Identity, error)
	FindByUsername(ctx context.Context, username string) (identity.Identity, error)
	FindByCredential(ctx context.Context, credential string) (identity.Identity, error)
	List(ctx context.Context) ([]identity.Identity, error)
	Update(ctx context.Context, ident identity.Identity) error
	Activate(ctx context.Context, username, credential string) (bool, error)
}

// Publisher sends identity events to the broker.
type Publisher interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// ErrCredentialPending distinguishes "password correct but credential not yet
// issued" from a plain authorization failure.
var ErrCredentialPending = fmt.Errorf("credential not yet issued: %w", sentinel.ErrUnauthorized)

// RegisterParams is the already-validated input from the transport layer.
type RegisterParams struct {
	Username string
	Email    string
	Password string
	Age      int
	Gender   string
}

// Service owns identity registration and the access gate. The activation side
// lives in internal/identity/consumer; this service only ever writes
// provisional identities.
type Service struct {
	store     Store
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func New(store Store, publisher Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates a provisional identity and announces it on the broker.
//
// The publish is deliberately fire-and-forget: the identity row is the primary
// fact and it already exists, so a broker failure must not fail registration.
// The cost is an identity stuck provisional until Reissue republishes for it.
// That gap is surfaced through the publish-failure counter and the log line,
// never hidden.
func (s *Service) Register(ctx context.Context, params RegisterParams) (identity.Identity, error) {
	if params.Username == "" || params.Email == "" {
		return identity.Identity{}, fmt.Errorf("username and email are required: %w", sentinel.ErrInvalidConfig)
	}
	if len(params.Password) < 6 {
		return identity.Identity{}, fmt.Errorf("password must be at least 6 characters: %w", sentinel.ErrInvalidConfig)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("hash password: %w", err)
	}

	ident := identity.Identity{
		ID:              uuid.New(),
		Username:        params.Username,
		Email:           params.Email,
		PasswordHash:    string(hash),
		Credential:      identity.NewProvisionalCredential(),
		CredentialState: identity.CredentialProvisional,
		Age:             params.Age,
		Gender:          params.Gender,
		CreatedAt:       s.now(),
	}

	if err := s.store.Create(ctx, ident); err != nil {
		return identity.Identity{}, fmt.Errorf("create identity: %w", err)
	}
	if s.metrics != nil {
		s.metrics.IdentitiesRegistered.Inc()
	}

	s.publishCreated(ctx, ident.Username)
	return ident, nil
}

// Reissue republishes the created event for an identity whose original
// announcement was lost. Unlike the registration-time publish, failure here
// surfaces to the caller, who explicitly asked for the republish.
func (s *Service) Reissue(ctx context.Context, username string) error {
	ident, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("find identity %q: %w", username, err)
	}

	event := events.IdentityCreated{Username: ident.Username, OccurredAt: s.now()}
	payload, err := event.Encode()
	if err != nil {
		return err
	}
	if err := s.publisher.Produce(ctx, events.TopicIdentity, []byte(ident.Username), payload); err != nil {
		return fmt.Errorf("republish identity event: %w", err)
	}
	return nil
}

// Authorize is the access gate: it maps a presented credential to an identity
// and accepts only active ones. Provisional credentials are structurally
// valid strings but carry no authorization.
func (s *Service) Authorize(ctx context.Context, credential string) (identity.Identity, error) {
	if credential == "" {
		return identity.Identity{}, sentinel.ErrUnauthorized
	}

	ident, err := s.store.FindByCredential(ctx, credential)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return identity.Identity{}, sentinel.ErrUnauthorized
		}
		return identity.Identity{}, fmt.Errorf("lookup credential: %w", err)
	}
	if !ident.Active() {
		return identity.Identity{}, sentinel.ErrUnauthorized
	}
	return ident, nil
}

// Credential returns the active credential for a username/password pair.
// A correct password against a still-provisional identity yields
// ErrCredentialPending, not success with an unusable credential.
func (s *Service) Credential(ctx context.Context, username, password string) (string, error) {
	ident, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", sentinel.ErrUnauthorized
		}
		return "", fmt.Errorf("find identity %q: %w", username, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(ident.PasswordHash), []byte(password)) != nil {
		return "", sentinel.ErrUnauthorized
	}
	if !ident.Active() {
		return "", ErrCredentialPending
	}
	return ident.Credential, nil
}

// UpdateParams applies partially: zero values leave the field unchanged.
// Username, credential and state are not updatable through this path.
type UpdateParams struct {
	Email    string
	Password string
	Age      int
	Gender   string
}

// UpdateProfile lets an authenticated identity change its own mutable fields.
// A new password is re-hashed; the credential and its state are untouched, so
// an update never interferes with activation.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, params UpdateParams) (identity.Identity, error) {
	ident, err := s.store.FindByID(ctx, id)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("find identity: %w", err)
	}

	if params.Email != "" {
		ident.Email = params.Email
	}
	if params.Password != "" {
		if len(params.Password) < 6 {
			return identity.Identity{}, fmt.Errorf("password must be at least 6 characters: %w", sentinel.ErrInvalidConfig)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
		if err != nil {
			return identity.Identity{}, fmt.Errorf("hash password: %w", err)
		}
		ident.PasswordHash = string(hash)
	}
	if params.Age != 0 {
		ident.Age = params.Age
	}
	if params.Gender != "" {
		ident.Gender = params.Gender
	}

	if err := s.store.Update(ctx, ident); err != nil {
		return identity.Identity{}, fmt.Errorf("update identity: %w", err)
	}
	return ident, nil
}

// Get looks up an identity by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (identity.Identity, error) {
	return s.store.FindByID(ctx, id)
}

// List returns all identities.
func (s *Service) List(ctx context.Context) ([]identity.Identity, error) {
	return s.store.List(ctx)
}

func (s *Service) publishCreated(ctx context.Context, username string) {
	event := events.IdentityCreated{Username: username, OccurredAt: s.now()}
	payload, err := event.Encode()
	if err != nil {
		s.logger.Error("encode identity event", "username", username, "error", err)
		return
	}
	if err := s.publisher.Produce(ctx, events.TopicIdentity, []byte(username), payload); err != nil {
		if s.metrics != nil {
			s.metrics.PublishFailures.Inc()
		}
		s.logger.Error("identity event publish failed, credential stays provisional",
			"username", username,
			"topic", events.TopicIdentity,
			"error", err,
		)
	}
}

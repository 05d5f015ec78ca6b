package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"orgauth-backend/internal/metrics"
	"orgauth-backend/internal/models"
	"orgauth-backend/internal/storage"
)

// EventPublisher receives domain events after their writes are committed.
type EventPublisher interface {
	Publish(ctx context.Context, evt models.Event) error
}

// Session is the result of a successful signup or login.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	User        models.PublicUser
}

// Gateway orchestrates signup and login.
type Gateway struct {
	store  storage.Store
	creds  *CredentialManager
	tokens *TokenService
	events EventPublisher
}

func NewGateway(store storage.Store, creds *CredentialManager, tokens *TokenService, events EventPublisher) *Gateway {
	return &Gateway{store: store, creds: creds, tokens: tokens, events: events}
}

// Signup registers a user together with a default organization and the
// membership binding them. The three writes and the token issue happen in a
// single transaction.
func (g *Gateway) Signup(ctx context.Context, in models.SignupInput) (*Session, error) {
	log := zerolog.Ctx(ctx)

	hash, err := g.creds.Hash(in.Password)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("signup", "error").Inc()
		return nil, fmt.Errorf("%w: %w", ErrRegistrationFailed, err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		PasswordHash: hash,
	}
	org := &models.Organization{
		ID:   uuid.NewString(),
		Name: in.FirstName + "'s organization",
	}

	var (
		token  string
		claims *Claims
	)
	err = g.store.WithTx(ctx, func(tx storage.Tx) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		if err := tx.CreateOrganization(ctx, org); err != nil {
			return err
		}
		if err := tx.CreateMembership(ctx, user.ID, org.ID); err != nil {
			return err
		}

		var err error
		token, claims, err = g.tokens.Issue(user.ID, user.Email)
		return err
	})
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			metrics.AuthAttemptsTotal.WithLabelValues("signup", "duplicate").Inc()
			return nil, ErrDuplicateCredential
		}
		log.Error().Err(err).Msg("signup failed")
		metrics.AuthAttemptsTotal.WithLabelValues("signup", "error").Inc()
		return nil, fmt.Errorf("%w: %w", ErrRegistrationFailed, err)
	}

	metrics.AuthAttemptsTotal.WithLabelValues("signup", "success").Inc()
	log.Info().Str("user_id", user.ID).Str("org_id", org.ID).Msg("user registered")
	g.publish(ctx, models.NewEvent(models.EventUserRegistered, user.ID, org.ID))

	return &Session{
		AccessToken: token,
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        user.Public(),
	}, nil
}

// Login authenticates by email and password. An unknown email and a wrong
// password both yield ErrInvalidCredential.
func (g *Gateway) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := g.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			g.creds.VerifyDummy(password)
			metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid").Inc()
			return nil, ErrInvalidCredential
		}
		metrics.AuthAttemptsTotal.WithLabelValues("login", "error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	if !g.creds.Verify(user.PasswordHash, password) {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid").Inc()
		return nil, ErrInvalidCredential
	}

	token, claims, err := g.tokens.Issue(user.ID, user.Email)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	metrics.AuthAttemptsTotal.WithLabelValues("login", "success").Inc()
	return &Session{
		AccessToken: token,
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        user.Public(),
	}, nil
}

// ResolveUser loads the user a verified token was issued for. The password
// hash is stripped from the result.
func (g *Gateway) ResolveUser(ctx context.Context, claims *Claims) (*models.User, error) {
	user, err := g.store.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

func (g *Gateway) publish(ctx context.Context, evt models.Event) {
	if g.events == nil {
		return
	}
	if err := g.events.Publish(ctx, evt); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event", evt.Type).Msg("failed to publish event")
	}
}

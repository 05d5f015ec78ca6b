package auth

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"orgauth-backend/internal/models"
	"orgauth-backend/internal/storage"
	"orgauth-backend/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

// failingMembershipStore breaks the last write of the signup transaction.
type failingMembershipStore struct {
	*memory.Store
}

func (s failingMembershipStore) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	return s.Store.WithTx(ctx, func(tx storage.Tx) error {
		return fn(failingMembershipTx{Tx: tx})
	})
}

type failingMembershipTx struct {
	storage.Tx
}

func (failingMembershipTx) CreateMembership(context.Context, string, string) error {
	return errors.New("connection reset")
}

func newTestGateway(t *testing.T, store storage.Store, events EventPublisher) *Gateway {
	t.Helper()
	return NewGateway(store, NewCredentialManager(testParams), newTestTokenService(t), events)
}

func angelSignup() models.SignupInput {
	return models.SignupInput{
		FirstName: "Angel",
		LastName:  "Benita",
		Email:     "angel@example.com",
		Password:  "benita123",
	}
}

func TestGateway_Signup(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	events := &recordingPublisher{}
	g := newTestGateway(t, store, events)

	before := time.Now()
	session, err := g.Signup(ctx, angelSignup())
	require.NoError(t, err)
	require.NotEmpty(t, session.AccessToken)
	require.WithinDuration(t, before.Add(time.Hour), session.ExpiresAt, 5*time.Second)
	require.Equal(t, "Angel", session.User.FirstName)
	require.Equal(t, "angel@example.com", session.User.Email)

	users, orgs, memberships := store.Counts()
	require.Equal(t, 1, users)
	require.Equal(t, 1, orgs)
	require.Equal(t, 1, memberships)

	userOrgs, err := store.ListUserOrganizations(ctx, session.User.UserID)
	require.NoError(t, err)
	require.Len(t, userOrgs, 1)
	require.Equal(t, "Angel's organization", userOrgs[0].Name)
	require.Empty(t, userOrgs[0].Description)

	stored, err := store.GetUser(ctx, session.User.UserID)
	require.NoError(t, err)
	require.NotEqual(t, "benita123", stored.PasswordHash)

	require.Len(t, events.events, 1)
	require.Equal(t, models.EventUserRegistered, events.events[0].Type)
	require.Equal(t, session.User.UserID, events.events[0].UserID)
	require.Equal(t, userOrgs[0].ID, events.events[0].OrgID)
}

func TestGateway_SignupDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	g := newTestGateway(t, store, nil)

	_, err := g.Signup(ctx, angelSignup())
	require.NoError(t, err)

	_, err = g.Signup(ctx, angelSignup())
	require.ErrorIs(t, err, ErrDuplicateCredential)

	users, orgs, memberships := store.Counts()
	require.Equal(t, 1, users)
	require.Equal(t, 1, orgs)
	require.Equal(t, 1, memberships)
}

func TestGateway_SignupIsAtomic(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	g := newTestGateway(t, failingMembershipStore{Store: inner}, nil)

	_, err := g.Signup(ctx, angelSignup())
	require.ErrorIs(t, err, ErrRegistrationFailed)
	require.NotErrorIs(t, err, ErrDuplicateCredential)

	users, orgs, memberships := inner.Counts()
	require.Zero(t, users)
	require.Zero(t, orgs)
	require.Zero(t, memberships)
}

func TestGateway_SignupPublishFailureIsIgnored(t *testing.T) {
	g := newTestGateway(t, memory.NewStore(), &recordingPublisher{err: errors.New("nats down")})

	_, err := g.Signup(context.Background(), angelSignup())
	require.NoError(t, err)
}

func TestGateway_Login(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t, memory.NewStore(), nil)

	signup, err := g.Signup(ctx, angelSignup())
	require.NoError(t, err)

	session, err := g.Login(ctx, "angel@example.com", "benita123")
	require.NoError(t, err)
	require.Equal(t, signup.User, session.User)

	claims, err := g.tokens.Verify(session.AccessToken)
	require.NoError(t, err)
	require.Equal(t, signup.User.UserID, claims.Subject)
	require.Equal(t, "angel@example.com", claims.Email)
}

func TestGateway_LoginFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t, memory.NewStore(), nil)

	_, err := g.Signup(ctx, angelSignup())
	require.NoError(t, err)

	_, wrongPassword := g.Login(ctx, "angel@example.com", "wrong")
	_, unknownEmail := g.Login(ctx, "nobody@example.com", "benita123")

	require.ErrorIs(t, wrongPassword, ErrInvalidCredential)
	require.ErrorIs(t, unknownEmail, ErrInvalidCredential)
	require.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestGateway_ResolveUser(t *testing.T) {
	ctx := context.Background()
	g := newTestGateway(t, memory.NewStore(), nil)

	session, err := g.Signup(ctx, angelSignup())
	require.NoError(t, err)
	claims, err := g.tokens.Verify(session.AccessToken)
	require.NoError(t, err)

	user, err := g.ResolveUser(ctx, claims)
	require.NoError(t, err)
	require.Equal(t, session.User.UserID, user.ID)
	require.Empty(t, user.PasswordHash)

	claims.Subject = "deleted-user"
	_, err = g.ResolveUser(ctx, claims)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestSession_UserHasNoPassword(t *testing.T) {
	g := newTestGateway(t, memory.NewStore(), nil)

	session, err := g.Signup(context.Background(), angelSignup())
	require.NoError(t, err)

	raw, err := json.Marshal(session.User)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "password")
	require.NotContains(t, string(raw), "argon2id")
}

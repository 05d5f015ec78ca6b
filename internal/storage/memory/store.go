package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"orgauth-backend/internal/models"
	"orgauth-backend/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type membershipKey struct {
	userID string
	orgID  string
}

type state struct {
	users       map[string]*models.User
	emails      map[string]string // email -> user id
	orgs        map[string]*models.Organization
	memberships map[membershipKey]models.Membership
	order       []membershipKey
}

// Store implements storage.Store in memory.
// Data is lost on restart; it backs tests and the "memory" store type.
type Store struct {
	mu sync.RWMutex
	state
}

func NewStore() *Store {
	return &Store{state: state{
		users:       make(map[string]*models.User),
		emails:      make(map[string]string),
		orgs:        make(map[string]*models.Organization),
		memberships: make(map[membershipKey]models.Membership),
	}}
}

// WithTx holds the write lock for the whole of fn and restores the previous
// state if fn fails. fn must only use the Tx it is given.
func (s *Store) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.snapshot()
	if err := fn(txWriter{s: &s.state}); err != nil {
		s.state = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txWriter{s: &s.state}.CreateUser(ctx, user)
}

func (s *Store) CreateOrganization(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txWriter{s: &s.state}.CreateOrganization(ctx, org)
}

func (s *Store) CreateMembership(ctx context.Context, userID, orgID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return txWriter{s: &s.state}.CreateMembership(ctx, userID, orgID)
}

func (s *Store) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	clone := *s.users[id]
	return &clone, nil
}

func (s *Store) GetOrganization(_ context.Context, id string) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, ok := s.orgs[id]
	if !ok {
		return nil, storage.ErrOrgNotFound
	}
	clone := *org
	return &clone, nil
}

func (s *Store) GetMembership(_ context.Context, userID, orgID string) (*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.memberships[membershipKey{userID: userID, orgID: orgID}]
	if !ok {
		return nil, storage.ErrMembershipNotFound
	}
	return &m, nil
}

func (s *Store) ListUserOrganizations(_ context.Context, userID string) ([]models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orgs := make([]models.Organization, 0)
	for _, key := range s.order {
		if key.userID == userID {
			orgs = append(orgs, *s.orgs[key.orgID])
		}
	}
	return orgs, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Counts reports the number of stored users, organizations and memberships.
func (s *Store) Counts() (users, orgs, memberships int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), len(s.orgs), len(s.memberships)
}

func (s *Store) snapshot() state {
	return state{
		users:       maps.Clone(s.users),
		emails:      maps.Clone(s.emails),
		orgs:        maps.Clone(s.orgs),
		memberships: maps.Clone(s.memberships),
		order:       slices.Clone(s.order),
	}
}

// txWriter mutates state without locking; callers hold Store.mu.
type txWriter struct {
	s *state
}

func (w txWriter) CreateUser(_ context.Context, user *models.User) error {
	if _, taken := w.s.emails[user.Email]; taken {
		return storage.ErrEmailTaken
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	clone := *user
	w.s.users[user.ID] = &clone
	w.s.emails[user.Email] = user.ID
	return nil
}

func (w txWriter) CreateOrganization(_ context.Context, org *models.Organization) error {
	if org.CreatedAt.IsZero() {
		org.CreatedAt = time.Now().UTC()
	}

	clone := *org
	w.s.orgs[org.ID] = &clone
	return nil
}

func (w txWriter) CreateMembership(_ context.Context, userID, orgID string) error {
	if _, ok := w.s.users[userID]; !ok {
		return storage.ErrUserNotFound
	}
	if _, ok := w.s.orgs[orgID]; !ok {
		return storage.ErrOrgNotFound
	}

	key := membershipKey{userID: userID, orgID: orgID}
	if _, exists := w.s.memberships[key]; exists {
		return nil
	}
	w.s.memberships[key] = models.Membership{UserID: userID, OrgID: orgID, CreatedAt: time.Now().UTC()}
	w.s.order = append(w.s.order, key)
	return nil
}

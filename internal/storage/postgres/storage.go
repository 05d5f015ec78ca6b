package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"orgauth-backend/internal/models"
	"orgauth-backend/internal/storage"
)

var _ storage.Store = (*Storage)(nil)

// Storage implements storage.Store on PostgreSQL.
type Storage struct {
	writer
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{writer: writer{q: db}, db: db}
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return db, nil
}

func (s *Storage) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(&writer{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, email, first_name, last_name, phone, password_hash, created_at
		FROM users
		WHERE id = $1
	`

	var user models.User
	if err := s.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, first_name, last_name, phone, password_hash, created_at
		FROM users
		WHERE email = $1
	`

	var user models.User
	if err := s.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &user, nil
}

func (s *Storage) GetOrganization(ctx context.Context, id string) (*models.Organization, error) {
	query := `
		SELECT id, name, description, created_at
		FROM organizations
		WHERE id = $1
	`

	var org models.Organization
	err := s.db.GetContext(ctx, &org, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrOrgNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return &org, nil
}

func (s *Storage) GetMembership(ctx context.Context, userID, orgID string) (*models.Membership, error) {
	query := `
		SELECT user_id, org_id, created_at
		FROM user_organizations
		WHERE user_id = $1 AND org_id = $2
	`

	var m models.Membership
	err := s.db.GetContext(ctx, &m, query, userID, orgID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrMembershipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return &m, nil
}

func (s *Storage) ListUserOrganizations(ctx context.Context, userID string) ([]models.Organization, error) {
	query := `
		SELECT o.id, o.name, o.description, o.created_at
		FROM user_organizations uo
		JOIN organizations o ON o.id = uo.org_id
		WHERE uo.user_id = $1
		ORDER BY uo.created_at, o.id
	`

	orgs := make([]models.Organization, 0)
	if err := s.db.SelectContext(ctx, &orgs, query, userID); err != nil {
		return nil, fmt.Errorf("list user organizations: %w", err)
	}
	return orgs, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// writer issues the write statements against either the pool or an open
// transaction.
type writer struct {
	q sqlx.ExtContext
}

func (w *writer) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, first_name, last_name, phone, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := w.q.QueryRowxContext(ctx, query,
		user.ID, user.Email, user.FirstName, user.LastName, user.Phone, user.PasswordHash,
	).Scan(&user.CreatedAt)
	if err != nil {
		return mapError("create user", err)
	}

	log.Debug().Str("user_id", user.ID).Msg("Created user")
	return nil
}

func (w *writer) CreateOrganization(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	err := w.q.QueryRowxContext(ctx, query, org.ID, org.Name, org.Description).Scan(&org.CreatedAt)
	if err != nil {
		return mapError("create organization", err)
	}

	log.Debug().Str("org_id", org.ID).Str("name", org.Name).Msg("Created organization")
	return nil
}

func (w *writer) CreateMembership(ctx context.Context, userID, orgID string) error {
	query := `
		INSERT INTO user_organizations (user_id, org_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, org_id) DO NOTHING
	`

	if _, err := w.q.ExecContext(ctx, query, userID, orgID); err != nil {
		return mapError("create membership", err)
	}

	log.Debug().Str("user_id", userID).Str("org_id", orgID).Msg("Created membership")
	return nil
}

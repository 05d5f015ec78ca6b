package storage

import (
	"context"
	"errors"

	"orgauth-backend/internal/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrOrgNotFound        = errors.New("organization not found")
	ErrMembershipNotFound = errors.New("membership not found")
	ErrEmailTaken         = errors.New("email already registered")
)

// Tx is the set of writes that can be grouped into one atomic unit.
// Implementations must make either all or none of the writes issued inside
// Store.WithTx visible.
type Tx interface {
	// CreateUser inserts a user. Returns ErrEmailTaken when the email is
	// already registered.
	CreateUser(ctx context.Context, user *models.User) error

	CreateOrganization(ctx context.Context, org *models.Organization) error

	// CreateMembership binds a user to an organization. Creating a membership
	// that already exists is not an error.
	CreateMembership(ctx context.Context, userID, orgID string) error
}

// Store is the persistence contract consumed by the auth and organization
// packages.
type Store interface {
	Tx

	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetOrganization(ctx context.Context, id string) (*models.Organization, error)
	GetMembership(ctx context.Context, userID, orgID string) (*models.Membership, error)

	// ListUserOrganizations returns every organization the user belongs to,
	// oldest membership first.
	ListUserOrganizations(ctx context.Context, userID string) ([]models.Organization, error)

	// WithTx runs fn inside a transaction. The transaction is committed when
	// fn returns nil and rolled back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Ping(ctx context.Context) error
}

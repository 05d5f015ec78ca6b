// Package organization decides which organizations a user may see and
// manages memberships.
package organization

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"orgauth-backend/internal/metrics"
	"orgauth-backend/internal/models"
	"orgauth-backend/internal/storage"
)

var (
	// ErrNotFound matches both ErrOrgNotFound and ErrUserNotFound.
	ErrNotFound     = errors.New("not found")
	ErrOrgNotFound  = fmt.Errorf("organization %w", ErrNotFound)
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	ErrForbidden    = errors.New("you do not belong to this organization")
)

// EventPublisher receives domain events after their writes are committed.
type EventPublisher interface {
	Publish(ctx context.Context, evt models.Event) error
}

type Authorizer struct {
	store  storage.Store
	events EventPublisher
}

func NewAuthorizer(store storage.Store, events EventPublisher) *Authorizer {
	return &Authorizer{store: store, events: events}
}

// UserOrganizations lists every organization the user is a member of.
func (a *Authorizer) UserOrganizations(ctx context.Context, userID string) ([]models.Organization, error) {
	orgs, err := a.store.ListUserOrganizations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing organizations: %w", err)
	}
	return orgs, nil
}

// GetOrganization returns the organization if userID is a member.
// Existence is checked before membership, so an unknown organization is
// ErrNotFound for every caller.
func (a *Authorizer) GetOrganization(ctx context.Context, orgID, userID string) (*models.Organization, error) {
	org, err := a.store.GetOrganization(ctx, orgID)
	if err != nil {
		if errors.Is(err, storage.ErrOrgNotFound) {
			metrics.OrganizationAccessTotal.WithLabelValues("not_found").Inc()
			return nil, ErrOrgNotFound
		}
		return nil, fmt.Errorf("loading organization: %w", err)
	}

	if _, err := a.store.GetMembership(ctx, userID, orgID); err != nil {
		if errors.Is(err, storage.ErrMembershipNotFound) {
			metrics.OrganizationAccessTotal.WithLabelValues("forbidden").Inc()
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("loading membership: %w", err)
	}

	metrics.OrganizationAccessTotal.WithLabelValues("allowed").Inc()
	return org, nil
}

// AddMember binds targetUserID to orgID. Adding an existing member succeeds
// without change.
func (a *Authorizer) AddMember(ctx context.Context, orgID, targetUserID string) error {
	if _, err := a.store.GetUser(ctx, targetUserID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("loading user: %w", err)
	}
	if _, err := a.store.GetOrganization(ctx, orgID); err != nil {
		if errors.Is(err, storage.ErrOrgNotFound) {
			return ErrOrgNotFound
		}
		return fmt.Errorf("loading organization: %w", err)
	}

	if err := a.store.CreateMembership(ctx, targetUserID, orgID); err != nil {
		switch {
		case errors.Is(err, storage.ErrUserNotFound):
			return ErrUserNotFound
		case errors.Is(err, storage.ErrOrgNotFound):
			return ErrOrgNotFound
		}
		return fmt.Errorf("creating membership: %w", err)
	}

	zerolog.Ctx(ctx).Info().Str("org_id", orgID).Str("user_id", targetUserID).Msg("member added")
	a.publish(ctx, models.NewEvent(models.EventMemberAdded, targetUserID, orgID))
	return nil
}

// CreateOrganization creates an organization owned by ownerID. The
// organization and the owner's membership are written atomically.
func (a *Authorizer) CreateOrganization(ctx context.Context, in models.CreateOrganizationInput, ownerID string) (*models.Organization, error) {
	org := &models.Organization{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
	}

	err := a.store.WithTx(ctx, func(tx storage.Tx) error {
		if err := tx.CreateOrganization(ctx, org); err != nil {
			return err
		}
		return tx.CreateMembership(ctx, ownerID, org.ID)
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("creating organization: %w", err)
	}

	zerolog.Ctx(ctx).Info().Str("org_id", org.ID).Str("owner_id", ownerID).Msg("organization created")
	a.publish(ctx, models.NewEvent(models.EventOrganizationCreated, ownerID, org.ID))
	return org, nil
}

func (a *Authorizer) publish(ctx context.Context, evt models.Event) {
	if a.events == nil {
		return
	}
	if err := a.events.Publish(ctx, evt); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event", evt.Type).Msg("failed to publish event")
	}
}

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"orgauth-backend/internal/auth"
	"orgauth-backend/internal/models"
	"orgauth-backend/internal/organization"
	"orgauth-backend/internal/respond"
	"orgauth-backend/internal/storage"
)

// Organizations is the subset of organization.Authorizer the handlers use.
type Organizations interface {
	UserOrganizations(ctx context.Context, userID string) ([]models.Organization, error)
	GetOrganization(ctx context.Context, orgID, userID string) (*models.Organization, error)
	AddMember(ctx context.Context, orgID, targetUserID string) error
	CreateOrganization(ctx context.Context, in models.CreateOrganizationInput, ownerID string) (*models.Organization, error)
}

type UserReader interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

type Handler struct {
	users UserReader
	orgs  Organizations
}

func New(users UserReader, orgs Organizations) *Handler {
	return &Handler{users: users, orgs: orgs}
}

// RegisterRoutes mounts the user and organization endpoints. Callers wrap r
// with the auth guard.
func (h *Handler) RegisterRoutes(r chi.Router) {
	// Users
	r.Get("/users/{id}", h.GetUser)

	// Organizations
	r.Get("/organizations", h.ListOrganizations)
	r.Post("/organizations", h.CreateOrganization)
	r.Get("/organizations/{id}", h.GetOrganization)
	r.Post("/organizations/{orgId}/users", h.AddMember)
}

// GetUser returns a user record
// @Summary Get user
// @Description Returns the public record of a user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} map[string]interface{} "User data"
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Failure 404 {object} map[string]interface{} "User does not exist"
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			respond.Error(w, http.StatusNotFound, "User does not exist")
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("loading user")
		respond.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respond.Success(w, http.StatusOK, "User fetched", user.Public())
}

// ListOrganizations returns the caller's organizations
// @Summary List organizations
// @Description Returns every organization the authenticated user belongs to
// @Tags organizations
// @Produce json
// @Success 200 {object} map[string]interface{} "Organizations"
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Security BearerAuth
// @Router /organizations [get]
func (h *Handler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	orgs, err := h.orgs.UserOrganizations(r.Context(), user.ID)
	if err != nil {
		httpErrorFromOrganization(w, r, err)
		return
	}

	respond.Success(w, http.StatusOK, "List of user organizations", map[string]any{"organizations": orgs})
}

// GetOrganization returns one organization the caller belongs to
// @Summary Get organization
// @Description Returns an organization if the authenticated user is a member
// @Tags organizations
// @Produce json
// @Param id path string true "Organization ID"
// @Success 200 {object} map[string]interface{} "Organization"
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Failure 403 {object} map[string]interface{} "Not a member"
// @Failure 404 {object} map[string]interface{} "Organization does not exist"
// @Security BearerAuth
// @Router /organizations/{id} [get]
func (h *Handler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	org, err := h.orgs.GetOrganization(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		httpErrorFromOrganization(w, r, err)
		return
	}

	respond.Success(w, http.StatusOK, "Organization found", org)
}

// CreateOrganization creates an organization owned by the caller
// @Summary Create organization
// @Description Creates an organization and makes the authenticated user a member
// @Tags organizations
// @Accept json
// @Produce json
// @Param organization body models.CreateOrganizationInput true "Organization"
// @Success 201 {object} map[string]interface{} "Organization successfully created"
// @Failure 400 {object} map[string]interface{} "Client error"
// @Failure 422 {object} map[string]interface{} "Validation error"
// @Security BearerAuth
// @Router /organizations [post]
func (h *Handler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var in models.CreateOrganizationInput
	if !respond.Decode(w, r, &in) {
		return
	}

	org, err := h.orgs.CreateOrganization(r.Context(), in, user.ID)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("creating organization")
		respond.Error(w, http.StatusBadRequest, "Client error")
		return
	}

	respond.Success(w, http.StatusCreated, "Organization successfully created", org)
}

// AddMember adds a user to an organization
// @Summary Add member
// @Description Adds an existing user to an existing organization
// @Tags organizations
// @Accept json
// @Produce json
// @Param orgId path string true "Organization ID"
// @Param member body models.AddMemberInput true "User to add"
// @Success 200 {object} map[string]interface{} "User added to organization"
// @Failure 404 {object} map[string]interface{} "User or organization does not exist"
// @Failure 422 {object} map[string]interface{} "Validation error"
// @Security BearerAuth
// @Router /organizations/{orgId}/users [post]
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	var in models.AddMemberInput
	if !respond.Decode(w, r, &in) {
		return
	}

	if err := h.orgs.AddMember(r.Context(), chi.URLParam(r, "orgId"), in.UserID); err != nil {
		httpErrorFromOrganization(w, r, err)
		return
	}

	respond.Success(w, http.StatusOK, "User added to organization", nil)
}

func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Invalid token")
	}
	return user, ok
}

func httpErrorFromOrganization(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, organization.ErrUserNotFound):
		respond.Error(w, http.StatusNotFound, "User does not exist")
	case errors.Is(err, organization.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "Organization does not exist")
	case errors.Is(err, organization.ErrForbidden):
		respond.Error(w, http.StatusForbidden, "You do not belong to this organization")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("organization request failed")
		respond.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"orgauth-backend/internal/models"
	"orgauth-backend/internal/respond"
)

// Authenticator is the subset of Gateway the HTTP handlers use.
type Authenticator interface {
	Signup(ctx context.Context, in models.SignupInput) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
}

type Handler struct {
	auth Authenticator
}

func NewHandler(auth Authenticator) *Handler {
	return &Handler{auth: auth}
}

type sessionResponse struct {
	AccessToken string            `json:"accessToken"`
	User        models.PublicUser `json:"user"`
}

// Signup registers a new user
// @Summary Register a user
// @Description Creates a user, a default organization and the membership binding them, and returns an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param user body models.SignupInput true "Registration details"
// @Success 201 {object} map[string]interface{} "Registration successful"
// @Failure 400 {object} map[string]interface{} "Registration unsuccessful"
// @Failure 422 {object} map[string]interface{} "Validation error or duplicate email"
// @Router /auth/signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var in models.SignupInput
	if !respond.Decode(w, r, &in) {
		return
	}

	session, err := h.auth.Signup(r.Context(), in)
	if err != nil {
		status, message := httpErrorFromAuth(r.Context(), err)
		respond.Error(w, status, message)
		return
	}

	respond.Success(w, http.StatusCreated, "Registration successful", sessionResponse{
		AccessToken: session.AccessToken,
		User:        session.User,
	})
}

// Login authenticates a user and returns an access token
// @Summary User login
// @Description Authenticates user with email and password, returns an access token valid for one hour
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.LoginInput true "Login credentials"
// @Success 200 {object} map[string]interface{} "Login successful"
// @Failure 401 {object} map[string]interface{} "Authentication failed"
// @Failure 422 {object} map[string]interface{} "Validation error"
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginInput
	if !respond.Decode(w, r, &in) {
		return
	}

	session, err := h.auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		status, message := httpErrorFromAuth(r.Context(), err)
		respond.Error(w, status, message)
		return
	}

	respond.Success(w, http.StatusOK, "Login successful", sessionResponse{
		AccessToken: session.AccessToken,
		User:        session.User,
	})
}

// Me returns the current authenticated user
// @Summary Get current user
// @Description Returns the currently authenticated user's information
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{} "User data"
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Security BearerAuth
// @Router /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, msgInvalidToken)
		return
	}

	respond.Success(w, http.StatusOK, "User fetched", map[string]any{"user": user.Public()})
}

func httpErrorFromAuth(ctx context.Context, err error) (int, string) {
	switch {
	case errors.Is(err, ErrDuplicateCredential):
		return http.StatusUnprocessableEntity, "Duplicate email"
	case errors.Is(err, ErrRegistrationFailed):
		return http.StatusBadRequest, "Registration unsuccessful"
	case errors.Is(err, ErrInvalidCredential):
		return http.StatusUnauthorized, "Authentication failed"
	default:
		zerolog.Ctx(ctx).Error().Err(err).Msg("auth request failed")
		return http.StatusInternalServerError, "Internal server error"
	}
}

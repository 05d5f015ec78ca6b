package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"orgauth-backend/internal/metrics"
	"orgauth-backend/internal/models"
	"orgauth-backend/internal/respond"
)

type contextKey int

const userKey contextKey = iota

const (
	msgMissingHeader = "Authorization header missing or malformed"
	msgInvalidToken  = "Invalid token"
)

// UserResolver loads the user a verified token belongs to.
type UserResolver interface {
	ResolveUser(ctx context.Context, claims *Claims) (*models.User, error)
}

// Guard authenticates requests carrying a Bearer access token.
type Guard struct {
	tokens *TokenService
	users  UserResolver
}

func NewGuard(tokens *TokenService, users UserResolver) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// Middleware rejects requests without a valid token with 401 and attaches
// the resolved user to the request context otherwise.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			g.reject(w, "missing_header", msgMissingHeader)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			g.reject(w, "missing_header", msgMissingHeader)
			return
		}

		claims, err := g.tokens.Verify(token)
		if err != nil {
			reason := "malformed"
			if errors.Is(err, ErrTokenExpired) {
				reason = "expired"
			}
			zerolog.Ctx(ctx).Debug().Err(err).Msg("rejecting token")
			g.reject(w, reason, msgInvalidToken)
			return
		}

		user, err := g.users.ResolveUser(ctx, claims)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				g.reject(w, "unknown_user", msgInvalidToken)
				return
			}
			zerolog.Ctx(ctx).Error().Err(err).Msg("resolving token subject")
			respond.Error(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
	})
}

func (g *Guard) reject(w http.ResponseWriter, reason, message string) {
	metrics.GuardRejectionsTotal.WithLabelValues(reason).Inc()
	respond.Error(w, http.StatusUnauthorized, message)
}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user attached by Guard.Middleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}

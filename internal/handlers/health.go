package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"orgauth-backend/internal/respond"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Health reports whether the store is reachable.
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{} "ok"
// @Failure 503 {object} map[string]interface{} "store unavailable"
// @Router /healthz [get]
func Health(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("health check failed")
			respond.Error(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

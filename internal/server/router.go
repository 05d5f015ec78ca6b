package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "orgauth-backend/docs"
	"orgauth-backend/internal/auth"
	"orgauth-backend/internal/handlers"
	"orgauth-backend/internal/middleware"
	"orgauth-backend/internal/organization"
	"orgauth-backend/internal/storage"
)

// Deps are the components the router dispatches to.
type Deps struct {
	Logger  zerolog.Logger
	Store   storage.Store
	Gateway *auth.Gateway
	Guard   *auth.Guard
	Orgs    *organization.Authorizer
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)

	r.Get("/healthz", handlers.Health(d.Store))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	authHandler := auth.NewHandler(d.Gateway)
	r.Post("/auth/signup", authHandler.Signup)
	r.Post("/auth/login", authHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(d.Guard.Middleware)

		r.Get("/auth/me", authHandler.Me)
		handlers.New(d.Store, d.Orgs).RegisterRoutes(r)
	})

	return r
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"orgauth-backend/internal/auth"
	"orgauth-backend/internal/config"
	"orgauth-backend/internal/natsbus"
	"orgauth-backend/internal/organization"
	"orgauth-backend/internal/server"
	"orgauth-backend/internal/storage"
	"orgauth-backend/internal/storage/memory"
	"orgauth-backend/internal/storage/postgres"
)

type ServeCmd struct{}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	log, cfg, err := setup(globals)
	if err != nil {
		return err
	}
	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("starting server")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret)
	if err != nil {
		return err
	}
	creds := auth.NewCredentialManager(auth.Params{
		Time:    cfg.Auth.Argon2Time,
		Memory:  cfg.Auth.Argon2Memory,
		Threads: cfg.Auth.Argon2Threads,
		KeyLen:  auth.DefaultParams.KeyLen,
		SaltLen: auth.DefaultParams.SaltLen,
	})

	store, closeStore, err := openStore(ctx, log, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	var events auth.EventPublisher
	if cfg.NATS.URL != "" {
		bus, err := natsbus.Connect(natsbus.Config{
			URL:      cfg.NATS.URL,
			UserJWT:  cfg.NATS.UserJWT,
			UserSeed: cfg.NATS.UserSeed,
			Stream:   cfg.NATS.Stream,
		})
		if err != nil {
			return err
		}
		defer bus.Close()
		events = bus
	} else {
		log.Info().Msg("NATS_URL not set, domain events are not published")
	}

	gateway := auth.NewGateway(store, creds, tokens, events)
	handler := server.NewRouter(server.Deps{
		Logger:  log,
		Store:   store,
		Gateway: gateway,
		Guard:   auth.NewGuard(tokens, gateway),
		Orgs:    organization.NewAuthorizer(store, events),
	})

	srv := configureHTTPServer(cfg.Server, handler)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", cfg.Server.Listen).Msg("listening for HTTP requests")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func openStore(ctx context.Context, log zerolog.Logger, cfg config.StorageConfig) (storage.Store, func(), error) {
	switch cfg.Type {
	case "postgres":
		db, err := connectPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Msg("connected to database")

		if cfg.Postgres.MigrateOnStart {
			if err := postgres.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, nil, err
			}
		}
		return postgres.NewStorage(db), func() { db.Close() }, nil
	case "memory":
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return memory.NewStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}

package commands

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"orgauth-backend/internal/config"
	"orgauth-backend/internal/logger"
	"orgauth-backend/internal/storage/postgres"
)

type Globals struct {
	Debug   bool
	Config  string
	Version string
}

// setup installs the process logger and loads the configuration.
func setup(globals *Globals) (zerolog.Logger, *config.Config, error) {
	l := logger.Setup(globals.Debug)
	log.Logger = l
	zerolog.DefaultContextLogger = &l

	cfg, err := config.Load(globals.Config)
	if err != nil {
		return l, nil, err
	}
	return l, cfg, nil
}

func configureHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}

// connectPostgres retries until the database answers or the configured
// connect timeout elapses.
func connectPostgres(ctx context.Context, cfg config.PostgresConfig) (*sqlx.DB, error) {
	attempt := 0
	db, err := backoff.Retry(ctx, func() (*sqlx.DB, error) {
		attempt++
		return postgres.Open(ctx, cfg.DSN)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(cfg.ConnectTimeout),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", next).Msg("database connection failed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	return db, nil
}

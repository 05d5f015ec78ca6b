package commands

import (
	"context"
	"errors"

	"orgauth-backend/internal/storage/postgres"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	log, cfg, err := setup(globals)
	if err != nil {
		return err
	}
	if cfg.Storage.Postgres.DSN == "" {
		return errors.New("migrate requires a PostgreSQL DSN (DATABASE_URL or storage.postgres.dsn)")
	}

	db, err := connectPostgres(ctx, cfg.Storage.Postgres)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}
	log.Info().Msg("migrations applied")
	return nil
}

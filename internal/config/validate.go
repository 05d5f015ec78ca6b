package config

import (
	"errors"
	"fmt"

	"orgauth-backend/internal/auth"
)

// Validate reports every invalid field, not just the first.
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required (JWT_SECRET)"))
	}
	if c.Auth.Argon2Time == 0 || c.Auth.Argon2Memory == 0 || c.Auth.Argon2Threads == 0 {
		errs = append(errs, errors.New("auth.argon2_* parameters must be > 0"))
	}
	if c.Auth.Argon2Memory > auth.MaxArgon2Memory {
		errs = append(errs, fmt.Errorf("auth.argon2_memory_kib must be <= %d, got %d", auth.MaxArgon2Memory, c.Auth.Argon2Memory))
	}

	if c.Server.Listen == "" {
		errs = append(errs, errors.New("server.listen is required"))
	}

	switch c.Storage.Type {
	case "memory", "postgres":
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}
	if c.Storage.Type == "postgres" && c.Storage.Postgres.DSN == "" {
		errs = append(errs, errors.New("storage.postgres.dsn is required when storage.type is \"postgres\""))
	}

	if c.NATS.URL != "" {
		if (c.NATS.UserJWT == "") != (c.NATS.UserSeed == "") {
			errs = append(errs, errors.New("nats.user_jwt and nats.user_seed must be set together"))
		}
		if c.NATS.Stream == "" {
			errs = append(errs, errors.New("nats.stream is required when nats.url is set"))
		}
	}

	return errors.Join(errs...)
}

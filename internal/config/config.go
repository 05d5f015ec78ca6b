// Package config loads server configuration.
//
// Configuration is layered:
//  1. Built-in defaults
//  2. YAML config file (explicit path or ORGAUTH_CONFIG)
//  3. Environment variable overrides
//  4. Validation
package config

import "time"

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Storage StorageConfig `yaml:"storage"`
	NATS    NATSConfig    `yaml:"nats"`
}

type ServerConfig struct {
	Listen          string        `yaml:"listen"`           // default: ":8080"
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 15s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 10s
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"` // required

	// Argon2id cost for new hashes.
	Argon2Time    uint32 `yaml:"argon2_time"`       // default: 3
	Argon2Memory  uint32 `yaml:"argon2_memory_kib"` // default: 65536
	Argon2Threads uint8  `yaml:"argon2_threads"`    // default: 1
}

type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	DSN            string        `yaml:"dsn"`
	MaxOpenConns   int           `yaml:"max_open_conns"`   // default: 25
	ConnectTimeout time.Duration `yaml:"connect_timeout"`  // default: 1m, total retry budget
	MigrateOnStart bool          `yaml:"migrate_on_start"` // default: false
}

// NATSConfig enables domain event publication when URL is set.
type NATSConfig struct {
	URL      string `yaml:"url"`
	UserJWT  string `yaml:"user_jwt"`
	UserSeed string `yaml:"user_seed"`
	Stream   string `yaml:"stream"` // default: "ORGAUTH_EVENTS"
}

func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Listen:          ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			Argon2Time:    3,
			Argon2Memory:  64 * 1024,
			Argon2Threads: 1,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxOpenConns:   25,
				ConnectTimeout: time.Minute,
			},
		},
		NATS: NATSConfig{
			Stream: "ORGAUTH_EVENTS",
		},
	}
}

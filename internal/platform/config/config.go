// Package config builds runtime configuration from the environment so main
// stays lean. A .env file, when present, is loaded before reading.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures everything the server needs to start.
type Config struct {
	Addr string

	// DatabaseURL selects PostgreSQL storage; empty runs on in-memory
	// stores (development and tests).
	DatabaseURL string

	// KafkaBrokers enables the audit Kafka sink when non-empty.
	KafkaBrokers []string

	JWTSigningKey  string
	AccessTokenTTL time.Duration

	Redis Redis
}

// Redis captures connection settings for the score cache.
type Redis struct {
	// URL enables Redis when non-empty (redis://host:port/db).
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv loads .env if present and reads configuration from environment
// variables, applying development defaults.
func FromEnv() Config {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	addr := os.Getenv("SAATHI_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default; override in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	accessTokenTTL := 24 * time.Hour
	if raw := os.Getenv("ACCESS_TOKEN_TTL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			accessTokenTTL = parsed
		}
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, broker := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(broker); trimmed != "" {
				brokers = append(brokers, trimmed)
			}
		}
	}

	return Config{
		Addr:           addr,
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		KafkaBrokers:   brokers,
		JWTSigningKey:  jwtSigningKey,
		AccessTokenTTL: accessTokenTTL,
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
}

// Package config loads service configuration from environment variables so
// main stays lean.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures everything the intake service needs at startup. External
// collaborators (database, redis, object storage, kafka) are all optional in
// development; the server falls back to in-memory implementations when their
// URLs are absent.
type Config struct {
	Addr        string `env:"STAGELINK_ADDR" envDefault:":8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	// JWTSigningKey verifies session bearer tokens.
	JWTSigningKey string `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`

	// S3Bucket holds applicant photos. Empty means in-memory storage.
	S3Bucket    string `env:"STAGELINK_S3_BUCKET"`
	S3Region    string `env:"AWS_REGION" envDefault:"us-east-1"`
	S3PublicURL string `env:"STAGELINK_S3_PUBLIC_URL"`

	// KafkaBrokers enables the audit outbox publisher when non-empty.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	AuditTopic   string   `env:"AUDIT_TOPIC" envDefault:"stagelink.application-audit"`

	// DirectoryCacheTTL bounds staleness of cached public directory listings.
	DirectoryCacheTTL time.Duration `env:"DIRECTORY_CACHE_TTL" envDefault:"5m"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// FromEnv builds a Config from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

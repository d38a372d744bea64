package config

import (
	"os"
	"time"

	"github.com/Skotchmaster/backoffice/pkg/config"
)

type ServiceConfig struct {
	config.Config

	OrderTxTimeout time.Duration

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	RedisAddr      string
	RedisPassword  string
	IdempotencyTTL time.Duration
}

func Load() ServiceConfig {
	cfg := config.Load()

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")

	return ServiceConfig{
		Config: cfg,

		OrderTxTimeout: config.EnvDurationDefault("ORDER_TX_TIMEOUT", 10*time.Second),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    config.EnvDefault("ES_INDEX", "products"),

		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		IdempotencyTTL: config.EnvDurationDefault("IDEMPOTENCY_TTL", 24*time.Hour),
	}
}

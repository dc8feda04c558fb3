package app

import (
	"time"

	"github.com/grammarheroes/backend/internal/platform/envutil"
)

// Config is everything main needs, read once from the environment.
type Config struct {
	Port    string
	LogMode string

	ServiceName string
	Environment string
	Version     string

	JWTSecret string

	RedisAddr string

	SaplingURL     string
	SaplingAPIKey  string
	SaplingTimeout time.Duration

	GrammarCacheTTL time.Duration
}

func LoadConfig() Config {
	return Config{
		Port:    envutil.String("PORT", "8080"),
		LogMode: envutil.String("LOG_MODE", "development"),

		ServiceName: envutil.String("SERVICE_NAME", "grammarheroes-backend"),
		Environment: envutil.String("ENVIRONMENT", "development"),
		Version:     envutil.String("SERVICE_VERSION", "dev"),

		JWTSecret: envutil.String("JWT_SECRET_KEY", "defaultsecret"),

		RedisAddr: envutil.String("REDIS_ADDR", "localhost:6379"),

		SaplingURL:     envutil.String("SAPLING_API_URL", "https://api.sapling.ai/api/v1/edits"),
		SaplingAPIKey:  envutil.String("SAPLING_API_KEY", ""),
		SaplingTimeout: envutil.Seconds("SAPLING_TIMEOUT_SECONDS", 15*time.Second),

		GrammarCacheTTL: envutil.Seconds("GRAMMAR_CACHE_TTL_SECONDS", 30*24*time.Hour),
	}
}

package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all runtime settings, populated from environment
// variables with sane development defaults.
type Config struct {
	Port          string `env:"PORT" env-default:"8080"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN" env-default:"http://127.0.0.1:3000"`

	// DataDir is where the file document driver keeps its JSON documents.
	DataDir string `env:"DATA_DIR" env-default:"data"`

	// DatabaseURL switches persistence to Postgres when set.
	DatabaseURL string `env:"DATABASE_URL"`

	// RedisAddr switches persistence to Redis when set and Postgres is not.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`

	AuthSecret           string `env:"AUTH_SECRET" env-default:"dev-secret-change-me"`
	AccessTokenTTLMinute int    `env:"ACCESS_TOKEN_TTL_MINUTES" env-default:"480"`

	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"LOG_FORMAT" env-default:"text"`
}

func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read config from env: %w", err)
	}
	return cfg, nil
}

func (c Config) Address() string {
	return ":" + c.Port
}

package config

import (
	"encoding/base64"
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ServerAddr     string   `env:"MURMUR_ADDR" envDefault:"localhost:8000"`
	DatabaseDSN    string   `env:"MURMUR_DATABASE_DSN"`
	RedisAddr      string   `env:"MURMUR_REDIS_ADDR" envDefault:"localhost:6379"`
	SigningSecret  string   `env:"MURMUR_SIGNING_SECRET"`
	AllowedOrigins []string `env:"MURMUR_ALLOWED_ORIGINS" envSeparator:","`

	// SigningKey is the decoded form of SigningSecret, populated by Validate.
	SigningKey []byte `env:"-"`
}

// FromEnv builds a Config from the process environment. Flag overrides are
// applied by the caller before Validate.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(base64Secret)
}

// Validate checks required fields and decodes the signing secret.
func (c *Config) Validate() error {
	if c.ServerAddr == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database DSN cannot be empty")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("redis address cannot be empty")
	}
	if c.SigningSecret == "" {
		return fmt.Errorf("signing secret cannot be empty")
	}

	signingKey, err := decodeSigningSecret(c.SigningSecret)
	if err != nil {
		return fmt.Errorf("decode signing secret: %w", err)
	}
	c.SigningKey = signingKey

	return nil
}

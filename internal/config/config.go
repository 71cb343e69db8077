package config

import (
	"errors"
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Log    LogConfig
	JWT    JWTConfig
	Claim  ClaimConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string `envconfig:"SERVER_PORT" default:"3000"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"` // seconds
}

// DBConfig holds database-related configuration.
// WARNING: Default password is for local development only.
// In production, always set DB_PASSWORD via environment variable.
// In production, set DB_SSLMODE to "require" or "verify-full".
type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"` // CHANGE IN PRODUCTION
	Name     string `envconfig:"DB_NAME" default:"coupon_db"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"` // Use "require" in production
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns int    `envconfig:"DB_MIN_CONNS" default:"5"`
}

// DSN returns the PostgreSQL connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d&pool_min_conns=%d",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode, c.MaxConns, c.MinConns)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// JWTConfig holds the settings for admin bearer tokens.
type JWTConfig struct {
	Secret   string `envconfig:"JWT_SECRET" required:"true"`
	TTLHours int    `envconfig:"JWT_TTL_HOURS" default:"720"` // 30 days
}

// ClaimConfig holds the allocator quota and the per-IP rate limit applied to
// the public claim endpoint. MaxClaimsPerCoupon is a typed positive integer;
// the claim count comparison never involves string parsing.
type ClaimConfig struct {
	MaxClaimsPerCoupon int `envconfig:"MAX_CLAIMS_PER_COUPON" default:"1"`
	RateLimit          int `envconfig:"CLAIM_RATE_LIMIT" default:"2"`
	RateWindowHours    int `envconfig:"CLAIM_RATE_WINDOW_HOURS" default:"24"`
}

// Load parses environment variables into the Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.Claim.MaxClaimsPerCoupon < 1 {
		return nil, errors.New("MAX_CLAIMS_PER_COUPON must be at least 1")
	}
	if cfg.Claim.RateLimit < 1 {
		return nil, errors.New("CLAIM_RATE_LIMIT must be at least 1")
	}
	if cfg.JWT.TTLHours < 1 {
		return nil, errors.New("JWT_TTL_HOURS must be at least 1")
	}
	return &cfg, nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Log     LogConfig
	Pricing PricingConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string `envconfig:"SERVER_PORT" default:"3000"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"` // seconds
	BodyLimit       int    `envconfig:"BODY_LIMIT_BYTES" default:"1048576"`
}

// DBConfig holds the coupon registry (PostgreSQL) configuration.
// WARNING: Default password is for local development only.
// In production, always set DB_PASSWORD via environment variable.
type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"` // CHANGE IN PRODUCTION
	Name     string `envconfig:"DB_NAME" default:"storefront"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns int    `envconfig:"DB_MIN_CONNS" default:"5"`
}

// DSN returns the PostgreSQL connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d&pool_min_conns=%d",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode, c.MaxConns, c.MinConns)
}

// MongoConfig holds the product catalog configuration.
type MongoConfig struct {
	URI                string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	Database           string `envconfig:"MONGO_DATABASE" default:"storefront"`
	ProductsCollection string `envconfig:"MONGO_PRODUCTS_COLLECTION" default:"products"`
}

// RedisConfig holds the coupon cache configuration.
type RedisConfig struct {
	Addr      string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password  string `envconfig:"REDIS_PASSWORD" default:""`
	DB        int    `envconfig:"REDIS_DB" default:"0"`
	CouponTTL int    `envconfig:"COUPON_CACHE_TTL" default:"60"` // seconds, 0 disables the cache
}

// CouponCacheTTL returns the coupon cache TTL as a duration.
func (c RedisConfig) CouponCacheTTL() time.Duration {
	return time.Duration(c.CouponTTL) * time.Second
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// PricingConfig holds settings of the verification operation.
type PricingConfig struct {
	CurrencySymbol string `envconfig:"PRICING_CURRENCY_SYMBOL" default:"₹"`
	VerifyTimeout  int    `envconfig:"PRICING_VERIFY_TIMEOUT" default:"10"` // seconds
}

// Timeout returns the per-verification budget as a duration.
func (c PricingConfig) Timeout() time.Duration {
	return time.Duration(c.VerifyTimeout) * time.Second
}

// Load reads an optional .env file and parses environment variables into the Config struct.
// Variables already present in the environment take precedence over the file.
func Load() (*Config, error) {
	// A missing .env is fine; a malformed one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

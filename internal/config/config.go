package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	defaultDSN = "host=localhost user=postgres password=postgres dbname=estoque port=5432 sslmode=disable"
)

// Config is built once at startup and handed to every component that needs it.
type Config struct {
	Env            string
	HTTPPort       string
	DatabaseDSN    string
	StoreDriver    string
	DBMaxOpenConns int
	DBMaxIdleConns int
	JWTSecret      string
	TokenTTL       time.Duration
	CORSOrigins    string
	RequestTimeout time.Duration
	MaxImageBytes  int
}

// Load reads the environment (and .env when present) into a Config.
func Load() (*Config, error) {
	// .env is optional; real deployments set the variables directly
	_ = godotenv.Load()

	ttlMinutes, err := getEnvInt("TOKEN_TTL_MINUTES", 60)
	if err != nil {
		return nil, err
	}
	maxOpen, err := getEnvInt("DB_MAX_OPEN_CONNS", 20)
	if err != nil {
		return nil, err
	}
	maxIdle, err := getEnvInt("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return nil, err
	}
	maxImage, err := getEnvInt("MAX_IMAGE_BYTES", 5<<20)
	if err != nil {
		return nil, err
	}
	timeout, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("REQUEST_TIMEOUT is not a valid duration: %w", err)
	}

	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:    getEnv("DATABASE_DSN", defaultDSN),
		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DBMaxOpenConns: maxOpen,
		DBMaxIdleConns: maxIdle,
		JWTSecret:      getEnv("JWT_SECRET", ""),
		TokenTTL:       time.Duration(ttlMinutes) * time.Minute,
		CORSOrigins:    getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		RequestTimeout: timeout,
		MaxImageBytes:  maxImage,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail late at request time.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	if c.StoreDriver != StoreDriverPostgres && c.StoreDriver != StoreDriverMemory {
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL_MINUTES must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// UsesDefaultDSN reports whether the local development DSN is in use.
func (c *Config) UsesDefaultDSN() bool {
	return c.DatabaseDSN == defaultDSN
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

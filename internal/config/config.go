package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port             string
	StorageDriver    string
	DatabaseURL      string
	JWTSecret        string
	JWTIssuer        string
	JWTTTL           time.Duration
	CORSOrigins      []string
	LogLevel         string
	LogFormat        string
	BcryptCost       int
	SearchMaxResults int
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:             fallback(os.Getenv("PORT"), "8080"),
		StorageDriver:    strings.ToLower(fallback(os.Getenv("STORAGE_DRIVER"), DriverPostgres)),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:        strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:        fallback(os.Getenv("JWT_ISSUER"), "spamid-backend"),
		CORSOrigins:      parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		LogLevel:         fallback(os.Getenv("LOG_LEVEL"), "info"),
		LogFormat:        fallback(os.Getenv("LOG_FORMAT"), "json"),
		JWTTTL:           time.Duration(positiveInt(os.Getenv("JWT_TTL_MINUTES"), 60)) * time.Minute,
		BcryptCost:       positiveInt(os.Getenv("BCRYPT_COST"), bcrypt.DefaultCost),
		SearchMaxResults: positiveInt(os.Getenv("SEARCH_MAX_RESULTS"), 100),
	}

	switch cfg.StorageDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required")
		}
	case DriverMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func positiveInt(value string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
		return n
	}
	return def
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

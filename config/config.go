// Package config provides configuration management for the wanderlust
// application. It loads and validates settings from environment variables,
// supporting required variables, default values, and collective error
// reporting: rather than failing on the first bad variable, every problem is
// gathered so an operator sees the full list in one go. The process refuses
// to start if any required variable is missing — notably the database
// credentials and the session-signing secret.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// PoolConfig represents configuration for the database connection pool.
type PoolConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	MaxSize  int
}

// SessionConfig holds the session subsystem's settings.
type SessionConfig struct {
	// Secret signs session cookies so a client cannot forge a token.
	Secret string
	// Lifetime is how long an untouched session stays valid. Default 7 days.
	Lifetime time.Duration
	// TouchInterval bounds how stale a session's expiry timestamp may lag its
	// true last access. A session is only rewritten when more than this much
	// of its lifetime has been consumed, reducing write load at the cost of
	// the expiry lagging by up to TouchInterval.
	TouchInterval time.Duration
	// CleanupInterval is how often the background garbage collector removes
	// expired session rows.
	CleanupInterval time.Duration
}

// AuthConfig holds settings for the API token (JWT) surface.
type AuthConfig struct {
	JWTSecret           string
	AccessTokenDuration time.Duration
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	// Port is a string because it is only ever used to build a listen
	// address like ":8080".
	Port string
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	DB      *PoolConfig
	Session *SessionConfig
	Auth    *AuthConfig
	Server  *ServerConfig
}

// getRequiredEnv fetches a variable that must be present, collecting an error
// instead of returning one, so callers can report every missing variable at
// once.
func getRequiredEnv(key string, errs *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		*errs = append(*errs, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

// getOptionalEnv fetches a variable with a default string value.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getOptionalEnvInt fetches a variable parsed as an int, falling back to the
// default and collecting an error when the value does not parse.
func getOptionalEnvInt(key string, defaultValue int, errs *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

// getOptionalEnvDuration fetches a variable parsed as a time.Duration
// ("15m", "168h", ...), falling back to the default and collecting an error
// when the value does not parse.
func getOptionalEnvDuration(key string, defaultValue time.Duration, errs *[]string) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueDuration
}

// clampPoolSize keeps the pool size within sane bounds, collecting an error
// when the configured value had to be adjusted.
func clampPoolSize(size int, varName string, errs *[]string) int {
	if size < 2 {
		*errs = append(*errs, fmt.Sprintf("pool size for %s (%d) is less than minimum 2", varName, size))
		return 2
	}
	if size > 100 {
		*errs = append(*errs, fmt.Sprintf("pool size for %s (%d) is greater than maximum 100", varName, size))
		return 100
	}
	return size
}

// LoadConfig creates an AppConfig from the environment. It collects every
// error encountered and returns them as a single aggregated error, so a
// misconfigured deployment fails fast with a complete picture.
func LoadConfig() (*AppConfig, error) {
	var errs []string

	// Database configuration.
	dbUser := getRequiredEnv("DB_USER", &errs)
	dbPassword := getRequiredEnv("DB_PASSWORD", &errs)
	dbName := getRequiredEnv("DB_NAME", &errs)
	dbHost := getOptionalEnv("DB_HOST", "localhost")
	dbPort := getOptionalEnvInt("DB_PORT", 5432, &errs)
	poolSize := clampPoolSize(getOptionalEnvInt("DB_POOL_SIZE", 10, &errs), "DB_POOL_SIZE", &errs)

	dbConfig := &PoolConfig{
		Host:     dbHost,
		Port:     dbPort,
		User:     dbUser,
		Password: dbPassword,
		DBName:   dbName,
		MaxSize:  poolSize,
	}

	// Session configuration. The signing secret is required: without it any
	// client could mint a valid-looking session cookie.
	sessionSecret := getRequiredEnv("SESSION_SECRET", &errs)
	sessionConfig := &SessionConfig{
		Secret:          sessionSecret,
		Lifetime:        getOptionalEnvDuration("SESSION_LIFETIME", 7*24*time.Hour, &errs),
		TouchInterval:   getOptionalEnvDuration("SESSION_TOUCH_INTERVAL", 24*time.Hour, &errs),
		CleanupInterval: getOptionalEnvDuration("SESSION_CLEANUP_INTERVAL", time.Hour, &errs),
	}

	// Auth configuration for the JSON API tokens. The JWT secret defaults to
	// the session secret so small deployments only manage one secret.
	jwtSecret := getOptionalEnv("JWT_SECRET", sessionSecret)
	authConfig := &AuthConfig{
		JWTSecret:           jwtSecret,
		AccessTokenDuration: getOptionalEnvDuration("JWT_ACCESS_TOKEN_DURATION", 15*time.Minute, &errs),
	}

	serverConfig := &ServerConfig{
		Port: getOptionalEnv("PORT", "8080"),
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(errs, "\n- "))
	}

	return &AppConfig{
		DB:      dbConfig,
		Session: sessionConfig,
		Auth:    authConfig,
		Server:  serverConfig,
	}, nil
}

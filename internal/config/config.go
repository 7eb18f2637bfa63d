package config

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the route sequencing service.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Port: The port for the HTTP API and monitoring server.
// - ProviderType: The sequencing oracle to use (osrm, google).
// - APIKey: The API key for the oracle (required for Google).
// - RateLimit: Requests per second against the oracle (used by OSRM).
// - StoreType: The session store backend (memory, postgres, redis).
// - RedisURL: Redis connection URL when StoreType is redis.
// - SessionKey: Key the delivered set is persisted under; empty uses the default.
// - Database: Configuration settings for the PostgreSQL session store.
type Config struct {
	Env          string
	Port         int
	ProviderType string
	APIKey       string
	RateLimit    int
	StoreType    string
	RedisURL     string
	SessionKey   string
	Database     PostgresConfig
}

// PostgresConfig struct holds the configuration details for connecting to a
// PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// MustLoad loads the configuration from the environment (and a .env file
// when present) and returns a Config struct. It panics on values that
// cannot be parsed, so misconfiguration fails at startup rather than later.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ROTA")
	v.AutomaticEnv()

	v.SetDefault("env", "production")
	v.SetDefault("port", 8080)
	v.SetDefault("provider_type", "osrm")
	v.SetDefault("rate_limit", 1)
	v.SetDefault("store_type", "memory")

	// Database settings keep the conventional un-prefixed names.
	_ = v.BindEnv("db.host", "DB_HOST")
	_ = v.BindEnv("db.port", "DB_PORT")
	_ = v.BindEnv("db.username", "DB_USERNAME")
	_ = v.BindEnv("db.password", "DB_PASSWORD")
	_ = v.BindEnv("db.name", "DB_NAME")
	v.SetDefault("db.port", "5432")

	port := v.GetInt("port")
	if port <= 0 {
		panic("failed to parse port for the HTTP server from configuration")
	}

	rateLimit := v.GetInt("rate_limit")
	if rateLimit <= 0 {
		panic("failed to parse rate limit from configuration, must be a positive integer")
	}

	return &Config{
		Env:          v.GetString("env"),
		Port:         port,
		ProviderType: v.GetString("provider_type"),
		APIKey:       v.GetString("provider_key"),
		RateLimit:    rateLimit,
		StoreType:    v.GetString("store_type"),
		RedisURL:     v.GetString("redis_url"),
		SessionKey:   v.GetString("session_key"),
		Database: PostgresConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetString("db.port"),
			User:     v.GetString("db.username"),
			Password: v.GetString("db.password"),
			Name:     v.GetString("db.name"),
		},
	}
}

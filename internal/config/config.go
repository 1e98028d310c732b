package config

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Logging  LoggingConfig
	Auth     AuthConfig
	Ingest   IngestConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	Backend   string // "memory" or "redis"
	TTL       time.Duration
	RedisAddr string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// AuthConfig holds token verification configuration
type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
}

// IngestConfig holds announcement feed import configuration
type IngestConfig struct {
	Enabled   bool
	Interval  time.Duration
	RateLimit time.Duration
}

// Load parses flags and environment variables to build configuration
func Load() *Config {
	httpAddr := flag.String("http", ":8080", "HTTP server address")
	cacheBackend := flag.String("cache-backend", "memory", "Cache backend: memory or redis")
	cacheTTL := flag.Duration("cache-ttl", 2*time.Minute, "Cache TTL for feed snapshots")
	redisAddr := flag.String("redis-addr", "localhost:6379", "Redis server address")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	dbHost := flag.String("db-host", "localhost", "PostgreSQL host")
	dbPort := flag.Int("db-port", 5432, "PostgreSQL port")
	dbUser := flag.String("db-user", "postgres", "PostgreSQL user")
	dbPassword := flag.String("db-password", "postgres", "PostgreSQL password")
	dbName := flag.String("db-name", "campuslink", "PostgreSQL database name")
	dbSSLMode := flag.String("db-sslmode", "disable", "PostgreSQL SSL mode")
	ingestEnabled := flag.Bool("ingest", true, "Enable announcement feed import")
	ingestInterval := flag.Duration("ingest-interval", 30*time.Minute, "Announcement feed import interval")
	ingestRateLimit := flag.Duration("ingest-rate-limit", time.Second, "Minimum delay between requests to the same feed host")

	flag.Parse()

	applyEnv("HTTP_ADDR", httpAddr)
	applyEnv("CACHE_BACKEND", cacheBackend)
	applyEnvDuration("CACHE_TTL", cacheTTL)
	applyEnv("REDIS_ADDR", redisAddr)
	applyEnv("LOG_LEVEL", logLevel)
	applyEnv("DB_HOST", dbHost)
	applyEnvInt("DB_PORT", dbPort)
	applyEnv("DB_USER", dbUser)
	applyEnv("DB_PASSWORD", dbPassword)
	applyEnv("DB_NAME", dbName)
	applyEnv("DB_SSLMODE", dbSSLMode)
	applyEnvBool("INGEST_ENABLED", ingestEnabled)
	applyEnvDuration("INGEST_INTERVAL", ingestInterval)
	applyEnvDuration("INGEST_RATE_LIMIT", ingestRateLimit)

	return &Config{
		Server: ServerConfig{
			HTTPAddr: *httpAddr,
		},
		Database: DatabaseConfig{
			Host:     *dbHost,
			Port:     *dbPort,
			User:     *dbUser,
			Password: *dbPassword,
			Database: *dbName,
			SSLMode:  *dbSSLMode,
		},
		Cache: CacheConfig{
			Backend:   *cacheBackend,
			TTL:       *cacheTTL,
			RedisAddr: *redisAddr,
		},
		Logging: LoggingConfig{
			Level: *logLevel,
		},
		Auth: AuthConfig{
			JWTSecret:   getEnvOrDefault("AUTH_JWT_SECRET", "change-me-in-production"),
			JWTIssuer:   getEnvOrDefault("AUTH_JWT_ISSUER", "campuslink"),
			JWTAudience: getEnvOrDefault("AUTH_JWT_AUDIENCE", "campuslink-users"),
		},
		Ingest: IngestConfig{
			Enabled:   *ingestEnabled,
			Interval:  *ingestInterval,
			RateLimit: *ingestRateLimit,
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func applyEnv(key string, target *string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func applyEnvInt(key string, target *int) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*target = parsed
		}
	}
}

func applyEnvDuration(key string, target *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*target = parsed
		}
	}
}

func applyEnvBool(key string, target *bool) {
	switch os.Getenv(key) {
	case "true", "1":
		*target = true
	case "false", "0":
		*target = false
	}
}

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string
	AppEnv      string
	LogLevel    string
	SwaggerHost string

	DBDriver    string
	DatabaseDSN string
	ResetDB     bool

	RedisAddr string
	RedisDB   int
	RedisPass string

	JWTSecret       string
	TokenLifetime   time.Duration
	SessionCacheTTL time.Duration

	SchedulerTimezone      string
	RolloverOnStart        bool
	RolloverSchedule       string
	RolloverTimeout        time.Duration
	RolloverLeaseTTL       time.Duration
	SessionCleanupSchedule string
	SessionCleanupTimeout  time.Duration

	SeedAdminEmail    string
	SeedAdminPassword string
}

// Load builds Config from environment with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		AppEnv:      getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		SwaggerHost: os.Getenv("SWAGGER_HOST"),

		DBDriver:    getEnv("DB_DRIVER", "mysql"),
		DatabaseDSN: getEnv("DATABASE_DSN", getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/campus?charset=utf8mb4&parseTime=True&loc=UTC")),
		ResetDB:     os.Getenv("RESET_DB") == "true",

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:   getEnvInt("REDIS_DB", 0),
		RedisPass: os.Getenv("REDIS_PASSWORD"),

		JWTSecret:       getEnv("JWT_SECRET", "change-me"),
		TokenLifetime:   getEnvDuration("TOKEN_LIFETIME", 24*time.Hour),
		SessionCacheTTL: getEnvDuration("SESSION_CACHE_TTL", time.Minute),

		SchedulerTimezone:      getEnv("SCHEDULER_TIMEZONE", "UTC"),
		RolloverOnStart:        getEnv("ROLLOVER_ON_START", "true") == "true",
		RolloverSchedule:       getEnv("ROLLOVER_SCHEDULE", "0 0 * * *"),
		RolloverTimeout:        getEnvDuration("ROLLOVER_TIMEOUT", 5*time.Minute),
		RolloverLeaseTTL:       getEnvDuration("ROLLOVER_LEASE_TTL", 10*time.Minute),
		SessionCleanupSchedule: getEnv("SESSION_CLEANUP_SCHEDULE", "@hourly"),
		SessionCleanupTimeout:  getEnvDuration("SESSION_CLEANUP_TIMEOUT", time.Minute),

		SeedAdminEmail:    getEnv("SEED_ADMIN_EMAIL", "admin@campus.local"),
		SeedAdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),
	}
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

// getEnvDuration accepts Go duration strings ("24h") or, under KEY_SECONDS, a plain number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	if v := os.Getenv(key + "_SECONDS"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return def
}

package app

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"Gin_postgres_redis_tool_issuance/db"
	"Gin_postgres_redis_tool_issuance/overdue"
)

const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config is read from the environment, after .env when one exists.
type Config struct {
	Port         string
	StoreBackend string
	DB           db.Config
	RedisAddr    string
	RedisPwd     string
	WebOrigin    string
	SessionTTL   time.Duration

	SweepInterval time.Duration
	SweepDelay    time.Duration
	Location      *time.Location

	LogLevel    string
	Environment string
	ServiceName string

	BootstrapUsername string
	BootstrapPassword string
}

func (c Config) IsDevelopment() bool { return c.Environment == "development" }

// LoadConfig loads .env if present and reads the configuration.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()
	return loadConfig(os.Getenv)
}

func loadConfig(getenv func(string) string) (Config, error) {
	get := func(k, def string) string {
		v := getenv(k)
		if v == "" {
			return def
		}
		return v
	}

	ttlSec, err := strconv.Atoi(get("SESSION_TTL_SECONDS", "86400"))
	if err != nil || ttlSec <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL_SECONDS: invalid value %q", getenv("SESSION_TTL_SECONDS"))
	}
	interval, err := time.ParseDuration(get("OVERDUE_SWEEP_INTERVAL", overdue.DefaultInterval.String()))
	if err != nil || interval <= 0 {
		return Config{}, fmt.Errorf("OVERDUE_SWEEP_INTERVAL: invalid value %q", getenv("OVERDUE_SWEEP_INTERVAL"))
	}
	delay, err := time.ParseDuration(get("OVERDUE_SWEEP_DELAY", overdue.DefaultInitialDelay.String()))
	if err != nil || delay < 0 {
		return Config{}, fmt.Errorf("OVERDUE_SWEEP_DELAY: invalid value %q", getenv("OVERDUE_SWEEP_DELAY"))
	}
	loc := time.Local
	if tz := getenv("APP_TIMEZONE"); tz != "" {
		if loc, err = time.LoadLocation(tz); err != nil {
			return Config{}, fmt.Errorf("APP_TIMEZONE: %w", err)
		}
	}

	backend := get("STORE_BACKEND", BackendPostgres)
	switch backend {
	case BackendPostgres, BackendRedis, BackendMemory:
	default:
		return Config{}, fmt.Errorf("STORE_BACKEND: unknown backend %q", backend)
	}

	return Config{
		Port:         get("PORT", "3001"),
		StoreBackend: backend,
		DB: db.Config{
			Host:     get("DB_HOST", "127.0.0.1"),
			User:     get("DB_USER", "postgres"),
			Password: getenv("DB_PASSWORD"),
			Name:     get("DB_NAME", "tool_issuance"),
			Port:     get("DB_PORT", "5432"),
			SSLMode:  get("DB_SSLMODE", "disable"),
		},
		RedisAddr:         get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:          getenv("REDIS_PASSWORD"),
		WebOrigin:         get("WEB_ORIGIN", "http://localhost:3001"),
		SessionTTL:        time.Duration(ttlSec) * time.Second,
		SweepInterval:     interval,
		SweepDelay:        delay,
		Location:          loc,
		LogLevel:          get("LOG_LEVEL", "info"),
		Environment:       get("ENVIRONMENT", "production"),
		ServiceName:       get("SERVICE_NAME", "tool-issuance"),
		BootstrapUsername: getenv("BOOTSTRAP_ADMIN_USERNAME"),
		BootstrapPassword: getenv("BOOTSTRAP_ADMIN_PASSWORD"),
	}, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	AdminAPIToken  string
	LogLevel       string
	LogFormat      string
	RateLimitRPS   float64
	RateLimitBurst int

	Database DatabaseConfig
	Redis    RedisConfig
	Alerts   AlertConfig
	Workers  WorkerConfig

	// StoreTimeout bounds every storage call and transaction.
	StoreTimeout time.Duration
	// RiskPolicyFile points at a YAML policy book; empty uses the built-in book.
	RiskPolicyFile string
}

// DatabaseConfig selects the Postgres backend. An empty URL keeps every store
// in memory.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RiskCacheTTL time.Duration
}

type AlertConfig struct {
	NATSURL string
	Subject string
}

type WorkerConfig struct {
	ExpirySweepSchedule string
	ReconcileInterval   time.Duration
	ReconcileCapacity   int
}

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present; real
// environment variables win over it.
func FromEnv() (Server, error) {
	_ = godotenv.Load()

	cfg := Server{
		Addr:           getEnv("VETTING_ADDR", ":8080"),
		AdminAPIToken:  os.Getenv("ADMIN_API_TOKEN"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RiskPolicyFile: os.Getenv("RISK_POLICY_FILE"),
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Alerts: AlertConfig{
			NATSURL: os.Getenv("NATS_URL"),
			Subject: getEnv("ALERT_SUBJECT", "vetting.alerts"),
		},
		Workers: WorkerConfig{
			ExpirySweepSchedule: getEnv("EXPIRY_SWEEP_SCHEDULE", "0 2 * * *"),
		},
	}

	var err error
	if cfg.StoreTimeout, err = getDuration("STORE_TIMEOUT", 3*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Workers.ReconcileInterval, err = getDuration("RECONCILE_INTERVAL", 5*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.Workers.ReconcileCapacity, err = getInt("RECONCILE_QUEUE_CAPACITY", 4096); err != nil {
		return Server{}, err
	}
	if cfg.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", 50); err != nil {
		return Server{}, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 100); err != nil {
		return Server{}, err
	}
	if cfg.Database.MaxOpenConns, err = getInt("DATABASE_MAX_OPEN_CONNS", 20); err != nil {
		return Server{}, err
	}
	if cfg.Database.MaxIdleConns, err = getInt("DATABASE_MAX_IDLE_CONNS", 5); err != nil {
		return Server{}, err
	}
	if cfg.Database.ConnMaxLifetime, err = getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute); err != nil {
		return Server{}, err
	}
	if cfg.Redis.PoolSize, err = getInt("REDIS_POOL_SIZE", 10); err != nil {
		return Server{}, err
	}
	if cfg.Redis.MinIdleConns, err = getInt("REDIS_MIN_IDLE_CONNS", 2); err != nil {
		return Server{}, err
	}
	if cfg.Redis.RiskCacheTTL, err = getDuration("RISK_CACHE_TTL", time.Minute); err != nil {
		return Server{}, err
	}
	cfg.Redis.DialTimeout = cfg.StoreTimeout
	cfg.Redis.ReadTimeout = cfg.StoreTimeout
	cfg.Redis.WriteTimeout = cfg.StoreTimeout

	if cfg.StoreTimeout <= 0 {
		return Server{}, fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return f, nil
}

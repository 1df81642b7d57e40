// Package config collects the environment driven settings shared by the
// scorekeeper binaries. A .env file is honored through godotenv/autoload in
// each main package.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/scorekeeper/internal/cache"
	"github.com/sirupsen/logrus"
)

const EnvProduction = "production"

type Config struct {
	Env  string
	Port string

	// DatabaseURL is empty when no database is configured; the server then
	// keeps games in memory.
	DatabaseURL string

	// RedisAddr is empty when no Redis is configured; events are then only
	// broadcast to live subscribers.
	RedisAddr      string
	RedisDB        int
	HistorianQueue string

	TokenExpire       time.Duration
	JWTPrivateKeyPath string
	JWTPublicKeyPath  string

	AllowedOrigins []string
	LogLevel       logrus.Level

	HistorianBatchSize int
	HistorianFlush     time.Duration
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	cfg := Config{
		Env:                getEnv("SCOREKEEPER_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        databaseURL(),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		HistorianQueue:     getEnv("HISTORIAN_QUEUE_NAME", cache.DefaultQueueName),
		JWTPrivateKeyPath:  os.Getenv("JWT_PRIVATE_KEY_PATH"),
		JWTPublicKeyPath:   os.Getenv("JWT_PUBLIC_KEY_PATH"),
		HistorianBatchSize: getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		HistorianFlush:     time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
		LogLevel:           logrus.InfoLevel,
	}

	if v := os.Getenv("TOKEN_EXPIRE_TIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TOKEN_EXPIRE_TIME %q: %w", v, err)
		}
		cfg.TokenExpire = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		lvl, err := logrus.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL %q: %w", v, err)
		}
		cfg.LogLevel = lvl
	}

	// only restrict origins in production mode
	if cfg.IsProduction() {
		for _, o := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if cfg.HistorianBatchSize <= 0 {
		return Config{}, fmt.Errorf("HISTORIAN_BATCH_SIZE must be positive, got %d", cfg.HistorianBatchSize)
	}
	if cfg.HistorianFlush <= 0 {
		return Config{}, fmt.Errorf("HISTORIAN_FLUSH_MS must be positive, got %s", cfg.HistorianFlush)
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Addr is the listen address: all interfaces in production, localhost otherwise.
func (c Config) Addr() string {
	if c.IsProduction() {
		return ":" + c.Port
	}
	return "localhost:" + c.Port
}

// NewLogger builds the process logger at the configured level.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)
	if c.IsProduction() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

// databaseURL prefers DATABASE_URL and falls back to the POSTGRES_*/PG_*
// variables when PG_HOST is set.
func databaseURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	if os.Getenv("PG_HOST") == "" {
		return ""
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("PG_HOST"),
		getEnv("PG_PORT", "5432"),
		os.Getenv("PG_DATABASE"),
	)
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

package config

import (
	"testing"
	"time"

	"github.com/jason-s-yu/scorekeeper/internal/cache"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configVars = []string{
	"SCOREKEEPER_ENV", "PORT", "DATABASE_URL", "PG_HOST", "PG_PORT", "PG_DATABASE",
	"POSTGRES_USER", "POSTGRES_PASSWORD", "REDIS_ADDR", "REDIS_DB", "HISTORIAN_QUEUE_NAME",
	"TOKEN_EXPIRE_TIME", "LOG_LEVEL", "ALLOWED_ORIGINS", "HISTORIAN_BATCH_SIZE", "HISTORIAN_FLUSH_MS",
	"JWT_PRIVATE_KEY_PATH", "JWT_PUBLIC_KEY_PATH",
}

func clearEnv(t *testing.T) {
	for _, k := range configVars {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "localhost:8080", cfg.Addr())
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, cache.DefaultQueueName, cfg.HistorianQueue)
	assert.Equal(t, 20, cfg.HistorianBatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.HistorianFlush)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Zero(t, cfg.TokenExpire)
	assert.Nil(t, cfg.AllowedOrigins)
}

func TestLoadProduction(t *testing.T) {
	clearEnv(t)
	t.Setenv("SCOREKEEPER_ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("PG_HOST", "db")
	t.Setenv("POSTGRES_USER", "sk")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("PG_DATABASE", "scores")
	t.Setenv("TOKEN_EXPIRE_TIME", "24h")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "postgres://sk:pw@db:5432/scores", cfg.DatabaseURL)
	assert.Equal(t, 24*time.Hour, cfg.TokenExpire)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
}

func TestDatabaseURLWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://x/y")
	t.Setenv("PG_HOST", "ignored")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://x/y", cfg.DatabaseURL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"token ttl":  {"TOKEN_EXPIRE_TIME", "soon"},
		"log level":  {"LOG_LEVEL", "loud"},
		"batch size": {"HISTORIAN_BATCH_SIZE", "0"},
		"zero flush": {"HISTORIAN_FLUSH_MS", "0"},
		"neg flush":  {"HISTORIAN_FLUSH_MS", "-5"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

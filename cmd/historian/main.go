// cmd/historian is an asynchronous historian service that pops game events
// from a Redis queue and persists them to PostgreSQL in batches.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/scorekeeper/internal/cache"
	"github.com/jason-s-yu/scorekeeper/internal/config"
	"github.com/jason-s-yu/scorekeeper/internal/database"
	"github.com/jason-s-yu/scorekeeper/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatalf("historian exited: %v", err)
	}
	logger.Info("Historian shutdown complete.")
}

func run(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	if cfg.DatabaseURL == "" || cfg.RedisAddr == "" {
		return errors.New("historian needs both a database (DATABASE_URL or PG_*) and REDIS_ADDR")
	}

	pool, err := database.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	logger.WithFields(logrus.Fields{
		"queue":      cfg.HistorianQueue,
		"batch_size": cfg.HistorianBatchSize,
		"flush":      cfg.HistorianFlush,
	}).Info("historian configured")

	svc := historian.New(
		cache.NewEventQueue(rdb, cfg.HistorianQueue),
		database.NewEventRepo(pool),
		cfg.HistorianBatchSize,
		cfg.HistorianFlush,
		logger,
	)
	return svc.Run(ctx)
}

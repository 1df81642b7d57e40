// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/scorekeeper/internal/auth"
	"github.com/jason-s-yu/scorekeeper/internal/cache"
	"github.com/jason-s-yu/scorekeeper/internal/config"
	"github.com/jason-s-yu/scorekeeper/internal/database"
	"github.com/jason-s-yu/scorekeeper/internal/game"
	"github.com/jason-s-yu/scorekeeper/internal/handlers"
	"github.com/jason-s-yu/scorekeeper/internal/models"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	if err := initAuth(cfg, logger); err != nil {
		return err
	}

	var store game.Store
	if cfg.DatabaseURL != "" {
		pool, err := database.ConnectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = database.NewGameRepo(pool)
	} else {
		logger.Warn("no database configured, games are kept in memory")
		store = game.NewGameStore()
	}

	hub := handlers.NewGameHub(logger)
	opts := []game.Option{game.WithLogger(logger), game.WithBroadcaster(hub)}
	if cfg.RedisAddr != "" {
		rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		opts = append(opts, game.WithPublisher(cache.NewEventQueue(rdb, cfg.HistorianQueue)))
	} else {
		logger.Warn("no redis configured, game events are not queued for the historian")
	}

	gs := handlers.NewGameServer(game.NewService(store, opts...), hub, logger)
	gs.OriginPatterns = originPatterns(cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handlers.NewRouter(gs, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// initAuth loads the signing keys from disk when configured. Otherwise a
// throwaway key pair is generated and, outside production, a token for a
// development admin is logged so the CLI can be used right away.
func initAuth(cfg config.Config, logger *logrus.Logger) error {
	if cfg.JWTPublicKeyPath != "" {
		return auth.InitFromPath(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, cfg.TokenExpire)
	}
	if err := auth.Init(cfg.TokenExpire); err != nil {
		return err
	}
	logger.Warn("no JWT keys configured, using an ephemeral key pair")
	if cfg.IsProduction() {
		return nil
	}
	tok, err := auth.CreateJWT(models.User{ID: "dev", TenantID: "dev", Role: models.RoleAdmin})
	if err != nil {
		return err
	}
	logger.WithField("token", tok).Info("development session token")
	return nil
}

// originPatterns turns CORS origins into host patterns for websocket.Accept.
func originPatterns(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	var out []string
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
		}
	}
	return out
}

package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/alicelovescake/cashapp/internal/auth"
	"github.com/alicelovescake/cashapp/internal/config"
	"github.com/alicelovescake/cashapp/internal/events"
	"github.com/alicelovescake/cashapp/internal/handlers"
	"github.com/alicelovescake/cashapp/internal/ledger"
	"github.com/alicelovescake/cashapp/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load(logger)
	if cfg.Env == "development" {
		logger.SetLevel(logrus.DebugLevel)
	}

	store, closeStore, err := buildStore(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to set up storage")
	}
	defer closeStore()

	book := ledger.New()
	if snap, err := store.Load(context.Background()); err != nil {
		if os.IsNotExist(err) {
			logger.Info("no snapshot found, starting with an empty ledger")
		} else {
			logger.WithError(err).Fatal("failed to load snapshot")
		}
	} else if err := book.Restore(snap); err != nil {
		logger.WithError(err).Fatal("failed to restore ledger from snapshot")
	} else {
		logger.WithField("accounts", len(book.Accounts())).Info("ledger restored from snapshot")
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NatsURL != "" {
		np, err := events.NewNATSPublisher(cfg.NatsURL, logger)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to NATS")
		}
		defer np.Close()
		publisher = np
		logger.Info("connected to NATS")
	}

	var blacklist auth.Blacklist = auth.NewMemoryBlacklist()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.WithError(err).Fatal("failed to connect to Redis")
		}
		defer client.Close()
		blacklist = auth.NewRedisBlacklist(client)
		logger.Info("connected to Redis")
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)
	server := handlers.NewServer(book, store, publisher, tokens, blacklist, logger)

	// Periodic snapshots so a crash loses at most one interval of work.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.AutosaveSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.Save(ctx, book.Snapshot()); err != nil {
			logger.WithError(err).Error("autosave failed")
		} else {
			logger.Debug("autosave complete")
		}
	}); err != nil {
		logger.WithError(err).Fatal("invalid autosave spec")
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      server.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.WithField("port", cfg.ServerPort).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server error")
		}
	}()

	<-done
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("forced shutdown")
	}

	if err := store.Save(ctx, book.Snapshot()); err != nil {
		logger.WithError(err).Error("final snapshot failed")
	}
	logger.Info("server stopped")
}

// buildStore picks PostgreSQL when DATABASE_URL is set and falls back to
// the file-backed snapshot store otherwise.
func buildStore(cfg *config.Config, logger *logrus.Logger) (storage.Store, func(), error) {
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, nil, err
		}
		pg := storage.NewPostgresStore(db)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("connected to PostgreSQL")
		return pg, func() { db.Close() }, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.SnapshotPath), 0o755); err != nil {
		return nil, nil, err
	}
	logger.WithField("path", cfg.SnapshotPath).Info("using file-backed snapshot store")
	return storage.NewJSONStore(cfg.SnapshotPath), func() {}, nil
}

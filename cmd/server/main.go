package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Simplici0/printfleet/internal/config"
	"github.com/Simplici0/printfleet/internal/db"
	"github.com/Simplici0/printfleet/internal/logger"
	"github.com/Simplici0/printfleet/internal/migrations"
	"github.com/Simplici0/printfleet/internal/repository/rest"
	"github.com/Simplici0/printfleet/internal/repository/sqlite"
	"github.com/Simplici0/printfleet/internal/seed"
	"github.com/Simplici0/printfleet/internal/session"
	"github.com/Simplici0/printfleet/internal/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	tokenFor := flag.String("token", "", "print a bearer token for the given account and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	auth := newAuthService(cfg.SessionSecret)
	if *tokenFor != "" {
		fmt.Println(auth.createToken(*tokenFor))
		return
	}

	zapLogger, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	for _, w := range cfg.Warnings() {
		zapLogger.Warn(w)
	}

	open, closeStore, err := openStore(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to open store", zap.Error(err))
	}
	defer closeStore()

	sessions := session.NewRegistry(open, zapLogger, session.Options{
		LowStockPercent: cfg.LowStockPercent,
		Interval:        cfg.AlertInterval,
	})
	defer sessions.CloseAll()

	srv := &server{auth: auth, sessions: sessions, log: zapLogger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(zapLogger))
	r.Mount("/", srv.routes())

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("listening", zap.String("addr", httpServer.Addr), zap.String("store", cfg.StoreBackend))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		zapLogger.Error("forced shutdown", zap.Error(err))
	}
}

// openStore prepares the configured backend and returns a per-account opener.
func openStore(cfg config.Config, log *zap.Logger) (session.StoreFunc, func(), error) {
	if cfg.StoreBackend == config.BackendREST {
		client := rest.NewClient(cfg.RESTURL, cfg.RESTAPIKey)
		open := func(accountID string) (store.Store, error) {
			return rest.New(client, accountID), nil
		}
		return open, func() {}, nil
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrations.Up(database); err != nil {
		_ = database.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	if err := runSeed(database, cfg, log); err != nil {
		_ = database.Close()
		return nil, nil, err
	}

	open := func(accountID string) (store.Store, error) {
		return sqlite.New(database, accountID), nil
	}
	return open, func() { _ = database.Close() }, nil
}

func runSeed(database *sql.DB, cfg config.Config, log *zap.Logger) error {
	stats, err := seed.Run(database, seed.Config{AccountID: cfg.SeedAccount})
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if stats.Inserts > 0 || stats.Updates > 0 {
		log.Info("seeded account",
			zap.String("account_id", cfg.SeedAccount),
			zap.Int("inserts", stats.Inserts),
			zap.Int("updates", stats.Updates),
		)
	}
	return nil
}

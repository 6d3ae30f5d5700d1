package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sureshodi/anandhaa/internal/catalog"
	"github.com/sureshodi/anandhaa/internal/config"
	"github.com/sureshodi/anandhaa/internal/invoice"
	"github.com/sureshodi/anandhaa/internal/logging"
	"github.com/sureshodi/anandhaa/internal/router"
	"github.com/sureshodi/anandhaa/internal/service"
	"github.com/sureshodi/anandhaa/internal/session"
	"github.com/sureshodi/anandhaa/internal/snapshot"
	"github.com/sureshodi/anandhaa/internal/stock"
	"github.com/sureshodi/anandhaa/internal/ws"
	"go.uber.org/zap"
)

const janitorInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Development())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The catalog must be readable before the form opens.
	loader := catalog.NewLoader(cfg.CatalogPath)
	cat, err := loader.Catalog()
	if err != nil {
		logger.Fatal("load catalog", zap.String("path", cfg.CatalogPath), zap.Error(err))
	}
	logger.Info("catalog loaded",
		zap.String("path", cfg.CatalogPath),
		zap.Int("products", cat.Len()),
		zap.Int("skipped", cat.Skipped()),
	)

	var sheet *stock.Sheet
	if cfg.StockTracking {
		if sheet, err = stock.LoadFile(cfg.CatalogPath); err != nil {
			logger.Fatal("load stock sheet", zap.Error(err))
		}
	}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open snapshot store", zap.Error(err))
	}
	defer closeStore()

	hub := ws.NewHub(logger)
	go hub.Run()
	defer hub.Stop()

	sessions := session.NewManager(nil)
	svc := service.NewBillingService(sessions, loader, store, hub, logger, service.Options{
		Shop: invoice.Shop{
			Name:    cfg.ShopName,
			Address: cfg.ShopAddress,
			Phone:   cfg.ShopPhone,
		},
		CurrencyLabel: cfg.CurrencyLabel,
		Stock:         sheet,
	})
	go svc.RunJanitor(ctx, janitorInterval, cfg.SessionIdleTimeout)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.New(cfg, svc, hub, sessions.Exists, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr), zap.Bool("stock_tracking", sheet != nil))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("force close failed", zap.Error(closeErr))
		}
	}
}

// openStore returns the Postgres store when DATABASE_URL is set and the
// file store otherwise.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (snapshot.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		fs, err := snapshot.NewFileStore(cfg.SnapshotDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("snapshot store", zap.String("kind", "file"), zap.String("dir", cfg.SnapshotDir))
		return fs, func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	pg := snapshot.NewPGStore(pool)
	if err := pg.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("snapshot store", zap.String("kind", "postgres"))
	return pg, pool.Close, nil
}

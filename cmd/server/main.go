package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/authflow/internal/auth"
	"github.com/mmynk/authflow/internal/config"
	"github.com/mmynk/authflow/internal/server"
	"github.com/mmynk/authflow/internal/storage/sqlite"
	"github.com/mmynk/authflow/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := logging.Setup()

	if err := run(logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	var cfg config.Server
	if err := config.ParseEnv(&cfg); err != nil {
		return err
	}

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()
	logger.Info("Storage initialized", "database", cfg.DBPath)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler := server.NewHandler(server.Deps{
		Store:         store,
		Authenticator: auth.NewPasswordAuthenticator(store),
		JWTManager:    auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL),
		Logger:        logger,
		Registry:      reg,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Connect server starting", "address", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.PurgeEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-ticker.C:
				n, err := store.PurgeExpiredTokens(ctx, now)
				if err != nil {
					logger.Warn("Failed to purge revoked tokens", "error", err)
					continue
				}
				if n > 0 {
					logger.Debug("Purged revoked tokens", "count", n)
				}
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

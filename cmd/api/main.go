// Package main is the entry point for the feast calendar API server.
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

	"github.com/zapponejosh/feast-calendar-api/internal/api"
	"github.com/zapponejosh/feast-calendar-api/internal/calendar"
	"github.com/zapponejosh/feast-calendar-api/internal/config"
	"github.com/zapponejosh/feast-calendar-api/internal/database"
	"github.com/zapponejosh/feast-calendar-api/internal/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Setup structured logging
	log := logger.Setup(cfg)

	log.Info("starting feast calendar API",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
		slog.String("log_level", cfg.LogLevel),
		slog.String("timezone", cfg.Timezone),
	)

	if err := run(cfg, log); err != nil {
		log.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// =========================================================================
	// Database
	// =========================================================================
	db, err := database.Open(database.DefaultConfig(cfg.DatabasePath), log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if _, err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	if cfg.SeedDefaults {
		n, err := db.SeedFeasts(ctx, calendar.DefaultFeasts())
		if err != nil {
			return fmt.Errorf("seed feasts: %w", err)
		}
		log.Info("built-in feasts seeded", slog.Int("count", n))
	}

	// =========================================================================
	// Calendar engine
	// =========================================================================
	catalog, err := calendar.LoadCatalog(ctx, db)
	if err != nil {
		return err
	}
	engine := calendar.NewEngine(catalog, calendar.WithLocation(cfg.Location()))

	if today, err := engine.Today(); err == nil {
		log.Info("calendar ready", slog.String("today", today.String()))
	} else {
		log.Warn("today is outside the modeled year; views open on Meskerem 1",
			slog.String("civil", calendar.FormatDate(engine.TodayCivil())))
	}

	// =========================================================================
	// HTTP server
	// =========================================================================
	handlers := api.NewHandlers(db, engine, cfg)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.SetupRoutes(handlers, cfg, log),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("feast calendar API ready", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

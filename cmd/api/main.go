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

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/folioport/internal/config"
	"github.com/MrJamesThe3rd/folioport/internal/database"
	folioHttp "github.com/MrJamesThe3rd/folioport/internal/http"
	convertHandler "github.com/MrJamesThe3rd/folioport/internal/http/convert"
	mappingHandler "github.com/MrJamesThe3rd/folioport/internal/http/mapping"
	"github.com/MrJamesThe3rd/folioport/internal/importer"
	"github.com/MrJamesThe3rd/folioport/internal/logger"
	"github.com/MrJamesThe3rd/folioport/internal/security"
	"github.com/MrJamesThe3rd/folioport/internal/security/chain"
	mappingStore "github.com/MrJamesThe3rd/folioport/internal/security/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(os.Stderr, cfg.App.LogLevel, cfg.App.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		mappingService *security.MappingService
		mappingH       *mappingHandler.Handler
	)

	if cfg.DB.Enabled {
		db, err := database.New(ctx, cfg.ConnectionString())
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		store := mappingStore.New(db)
		if err := store.Migrate(ctx); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}

		mappingService = security.NewMappingService(store)
		mappingH = mappingHandler.NewHandler(mappingService)
	}

	resolver, err := chain.New(cfg, mappingService)
	if err != nil {
		slog.Error("failed to build resolver", "error", err)
		os.Exit(1)
	}

	importService := importer.NewService(resolver, cfg.Settings(), importer.WithLogger(log))

	router := folioHttp.New(
		folioHttp.Options{AllowedOrigins: cfg.Server.AllowedOrigins, Timeout: cfg.Server.Timeout},
		convertHandler.NewHandler(importService),
		mappingH,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down server", "error", err)
		}
	}()

	slog.Info("starting server", "app", cfg.App.Name, "port", srv.Addr, "providers", importService.Providers())

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

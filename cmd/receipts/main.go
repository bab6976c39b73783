// The receipt service: image upload, model extraction, persistence.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/paymi/backend/internal/config"
	"github.com/paymi/backend/internal/middleware"
	"github.com/paymi/backend/internal/receipt"
	"github.com/paymi/backend/internal/service"
	"github.com/paymi/backend/internal/storage/mongo"
	"github.com/paymi/backend/pkg/logging"
)

const defaultPort = "8003"

func main() {
	logging.Setup()

	cfg := config.Load(defaultPort)
	if err := cfg.RequireMongo(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequireGemini(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := mongo.New(ctx, cfg.MongoURI)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			slog.Error("Failed to close store", "error", err)
		}
	}()

	extractor, err := receipt.NewGeminiExtractor(ctx, cfg.GeminiAPIKey)
	if err != nil {
		slog.Error("Failed to create model client", "error", err)
		os.Exit(1)
	}
	defer extractor.Close()

	r := mux.NewRouter()
	r.Use(middleware.Logging, middleware.CORS, middleware.Metrics("receipts"))
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	service.NewReceipts(extractor, store, store, slog.Default()).Routes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		slog.Info("Receipt service listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
}

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

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecgate/internal/config"
	"github.com/kailas-cloud/vecgate/internal/domain"
	logpkg "github.com/kailas-cloud/vecgate/internal/logger"
	"github.com/kailas-cloud/vecgate/internal/metrics"
	"github.com/kailas-cloud/vecgate/internal/repository"
	chiTransport "github.com/kailas-cloud/vecgate/internal/transport/chi"
	collectionuc "github.com/kailas-cloud/vecgate/internal/usecase/collection"
	documentuc "github.com/kailas-cloud/vecgate/internal/usecase/document"
	healthuc "github.com/kailas-cloud/vecgate/internal/usecase/health"
	"github.com/kailas-cloud/vecgate/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting vecgate API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Bool("remote_store", cfg.Store.IsRemote()),
		zap.String("store_driver", cfg.Store.Remote.Driver),
		zap.Bool("envelope", cfg.HTTP.EnvelopeEnabled()),
	)

	// Register store metrics explicitly (no init())
	metrics.RegisterStoreMetrics()

	ctx := context.Background()
	store, err := repository.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatal("Failed to open vector store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Error closing vector store", zap.Error(err))
		}
	}()

	collSvc := collectionuc.New(store)
	docSvc := documentuc.New(store).WithQueryLimits(domain.QueryLimits{
		DefaultNResults: cfg.Store.DefaultNResults,
		MaxNResults:     cfg.Store.MaxNResults,
	})
	healthSvc := healthuc.New(store)

	server := chiTransport.NewServer(collSvc, docSvc, healthSvc, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterOptions{
		APIKeys:  cfg.Auth.APIKeys,
		Envelope: cfg.HTTP.EnvelopeEnabled(),
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

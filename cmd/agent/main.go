package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/user/scamshield-agent/internal/backend"
	"github.com/user/scamshield-agent/internal/di"
	"github.com/user/scamshield-agent/pkg/config"
)

func main() {
	container, err := di.BuildContainer(nil)
	if err != nil {
		log.Fatalf("failed to build container: %v", err)
	}

	err = container.Invoke(func(cfg *config.Config, server *http.Server, client *backend.Client, cleanup *di.Cleanup, logger *zap.Logger) {
		defer logger.Sync()
		defer cleanup.Run()

		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("could not start server", zap.Error(err))
			}
		}()

		logger.Info("agent started",
			zap.String("port", cfg.ServerPort),
			zap.String("backend", client.ActiveBaseURL()),
			zap.String("storage", cfg.StorageDriver),
		)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server forced to shutdown", zap.Error(err))
		}

		logger.Info("server exiting")
	})
	if err != nil {
		log.Fatalf("failed to start agent: %v", err)
	}
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pulse-backend/infrastructure/config"
	"pulse-backend/infrastructure/di"
	"pulse-backend/interfaces/http/debug"
	"pulse-backend/interfaces/http/rest"
	"pulse-backend/interfaces/http/rest/middleware"

	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize dependency container
	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer container.Shutdown()

	zap.ReplaceGlobals(container.Logger)

	// A nil *Publisher must stay a nil interface for the middleware
	var requestRecorder middleware.RequestRecorder
	if container.Metrics != nil {
		requestRecorder = container.Metrics
	}

	router := rest.NewRouter(
		cfg.AppName,
		container.Logger,
		container.Recorder,
		container.Simulator,
		requestRecorder,
		cfg.DatabaseFailureRate,
		cfg.ExternalFailureRate,
	)

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		container.Logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("stage", cfg.Stage),
			zap.Bool("tracing", cfg.EnableTracing),
			zap.Bool("remote_logs", cfg.EnableRemoteLogs),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Optional debug listener for recent traces
	var debugSrv *http.Server
	if cfg.DebugAddress != "" {
		debugSrv = &http.Server{
			Addr:    cfg.DebugAddress,
			Handler: debug.NewRouter(cfg, container.RecentTraces),
		}
		go func() {
			container.Logger.Info("Starting debug server", zap.String("address", cfg.DebugAddress))
			if err := debugSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				container.Logger.Error("Debug server failed", zap.Error(err))
			}
		}()
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	container.Logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("Server shutdown error", zap.Error(err))
	}
	if debugSrv != nil {
		if err := debugSrv.Shutdown(shutdownCtx); err != nil {
			container.Logger.Error("Debug server shutdown error", zap.Error(err))
		}
	}

	log.Println("Server stopped")
}

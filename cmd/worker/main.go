package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rawcontext/engram-sub005/infrastructure/config"
	"github.com/rawcontext/engram-sub005/infrastructure/di"
	"github.com/rawcontext/engram-sub005/interfaces/http/rest"
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

	// In worker mode jobs run in-process: triggers published by the
	// scheduler, the activity tracker, or the admin API are dispatched
	// synchronously to the registered handlers.
	container.Publisher.SetLocalDispatcher(container.Dispatcher)

	container.Logger.Info("Starting worker service",
		zap.String("environment", cfg.Environment),
		zap.Strings("jobs", container.Dispatcher.Jobs()),
	)

	// Start the calendar scheduler
	if err := container.Scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Start the admin HTTP API
	router := rest.NewRouter(container.AdminHandler, cfg.EnableCORS, container.Logger)
	server := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		container.Logger.Info("Admin API listening", zap.String("address", cfg.ServerAddress))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Error("Admin API failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	container.Logger.Info("Shutting down worker service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	container.Scheduler.Stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		container.Logger.Warn("Admin API shutdown failed", zap.Error(err))
	}
	if err := container.Close(shutdownCtx); err != nil {
		container.Logger.Warn("Failed to close graph driver", zap.Error(err))
	}

	// Clean up resources
	if err := container.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	log.Println("Worker service stopped")
}

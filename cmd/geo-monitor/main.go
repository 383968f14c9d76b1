package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/openclaw/geo-monitor/internal/config"
	"github.com/openclaw/geo-monitor/internal/monitoring"
	"github.com/openclaw/geo-monitor/internal/notifications"
	"github.com/openclaw/geo-monitor/internal/providers"
	"github.com/openclaw/geo-monitor/internal/scheduler"
	"github.com/openclaw/geo-monitor/internal/storage"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Infof("Starting GEO Monitor for %s", cfg.Settings.Brand.Name)

	backend, err := storage.NewBackend(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}
	results := storage.NewResultStore(backend)

	notificationService := notifications.NewService(cfg)

	monitoringService := monitoring.NewService(cfg, results, logrus.StandardLogger())
	controller := monitoring.NewRunController(monitoringService, logrus.StandardLogger(), monitoring.DefaultLogLimit)

	schedulerService := scheduler.NewService(cfg, controller, results, notificationService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	api := &API{
		config:     cfg,
		controller: controller,
		metrics:    monitoringService,
		records:    results,
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      api.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	if controller.Stop() {
		logrus.Info("Waiting for the running pass to stop")
		select {
		case <-controller.Done():
		case <-time.After(providers.RequestTimeout + 30*time.Second):
			logrus.Warn("Running pass did not stop in time")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

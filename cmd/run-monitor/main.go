package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/openclaw/geo-monitor/internal/config"
	"github.com/openclaw/geo-monitor/internal/monitoring"
	"github.com/openclaw/geo-monitor/internal/notifications"
	"github.com/openclaw/geo-monitor/internal/report"
	"github.com/openclaw/geo-monitor/internal/storage"
	"github.com/sirupsen/logrus"
)

func main() {
	notify := flag.Bool("notify", false, "send the report through the configured notification channels")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	backend, err := storage.NewBackend(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	results := storage.NewResultStore(backend)

	// Ctrl+C stops the pass before its next request
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service := monitoring.NewService(cfg, results, logrus.StandardLogger())
	result, err := service.RunPass(ctx, nil)
	if err != nil && result == nil {
		log.Fatalf("Monitoring pass failed: %v", err)
	}
	if err != nil {
		logrus.Warnf("Monitoring pass stopped early: %v", err)
	}

	fmt.Printf("\nRun %s: %d questions, %d records, %d mentioned, %d failures\n",
		result.RunID, result.Questions, result.Records, result.Mentioned, result.Failures)
	for name, state := range result.Providers {
		fmt.Printf("  • %-12s %s (%d records)\n", name, state, result.Platforms[name])
	}

	records, err := results.LoadAll(1)
	if err != nil {
		log.Fatalf("Failed to load records: %v", err)
	}
	rep := report.Summarize(records, cfg.ProviderNames(), cfg.TopN, "今日")
	fmt.Println()
	fmt.Print(report.Markdown(rep))

	if *notify {
		if err := notifications.NewService(cfg).SendReport(rep); err != nil {
			log.Fatalf("Failed to send report: %v", err)
		}
	}
}

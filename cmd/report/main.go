package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/openclaw/geo-monitor/internal/config"
	"github.com/openclaw/geo-monitor/internal/providers"
	"github.com/openclaw/geo-monitor/internal/report"
	"github.com/openclaw/geo-monitor/internal/storage"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	days := flag.Int("days", cfg.ReportDays, "number of days to include, 0 for all")
	insight := flag.Bool("insight", false, "run gap analysis for under-performing intents")
	outDir := flag.String("out", ".", "directory for the insight report")
	flag.Parse()

	logrus.SetLevel(logrus.WarnLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	backend, err := storage.NewBackend(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	records, err := storage.NewResultStore(backend).LoadAll(*days)
	if err != nil {
		log.Fatalf("Failed to load records: %v", err)
	}
	if len(records) == 0 {
		fmt.Println("No records found. Run a monitoring pass first.")
		return
	}

	period := "全部"
	if *days > 0 {
		period = fmt.Sprintf("最近 %d 天", *days)
	}
	fmt.Print(report.Markdown(report.Summarize(records, cfg.ProviderNames(), cfg.TopN, period)))

	if !*insight {
		return
	}

	var analyst report.Analyst
	active, err := providers.NewActive(cfg)
	if err != nil {
		log.Fatalf("Failed to build providers: %v", err)
	}
	if p := providers.Pick(active, cfg.Settings.Analysts...); p != nil {
		fmt.Printf("\n🧠 Running gap analysis with %s...\n", p.GetName())
		analyst = providers.NewAssistant(p, cfg.Settings.Brand.Name)
	} else {
		fmt.Println("\n⚠️  No active provider, gap analysis will list competitors only")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	result, err := report.NewInsightEngine(analyst, cfg.GapThreshold).Analyze(ctx, records)
	if err != nil {
		log.Fatalf("Gap analysis failed: %v", err)
	}

	markdown := report.InsightMarkdown(result)
	path := filepath.Join(*outDir, fmt.Sprintf("GEO_INSIGHT_%s.md", config.Now().Format("20060102_150405")))
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", path, err)
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Print(markdown)
	fmt.Printf("📄 Insight report saved to %s\n", path)
}

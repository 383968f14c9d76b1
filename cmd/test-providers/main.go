package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/openclaw/geo-monitor/internal/config"
	"github.com/openclaw/geo-monitor/internal/providers"
)

const probePrompt = "你好，请用一句话介绍你自己。"

func main() {
	fmt.Println("🔍 GEO Monitor - Provider Connectivity Test")
	fmt.Println("===========================================")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	fmt.Println("\n📡 Testing providers...")
	fmt.Println(strings.Repeat("-", 40))

	working := 0
	for _, pc := range cfg.Settings.Providers {
		if testProvider(pc) {
			working++
		}
	}

	fmt.Printf("\n✅ %d of %d providers reachable\n", working, len(cfg.Settings.Providers))
	if working == 0 {
		fmt.Println("\n💡 Next steps:")
		fmt.Printf("   • Set <NAME>%s or add keys to %s\n", config.APIKeySuffix, cfg.SecretsPath)
		fmt.Println("   • Enable at least one provider in the settings file")
	}
}

func testProvider(pc config.ProviderConfig) bool {
	fmt.Printf("🔸 Testing %s (%s)... ", pc.Name, pc.Model)

	if !pc.Enabled {
		fmt.Println("⚠️  DISABLED")
		return false
	}
	if pc.APIKey == "" {
		fmt.Printf("⚠️  MISSING KEY (set %s)\n", config.EnvKey(pc.Name))
		return false
	}

	provider, err := providers.New(pc)
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	start := time.Now()
	result, err := provider.Chat(ctx, providers.UserMessage(probePrompt), 0.7)
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return false
	}

	fmt.Printf("✅ SUCCESS (%v)\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("   📝 Reply: \"%s\"\n", preview(result.Content, 60))
	if result.Reasoning != "" {
		fmt.Printf("   🧠 Reasoning trace: %d characters\n", len([]rune(result.Reasoning)))
	}
	return true
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

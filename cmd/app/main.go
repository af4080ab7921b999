package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"TradePulse/internal/di"
	"TradePulse/pkg/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s assets=%d interval=%s", cfg.Environment, len(cfg.Pipeline.Assets), cfg.Pipeline.Interval)

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	log.Printf("clickhouse: connected and schema ready - db: %s", cfg.ClickHouse.Database)
	if cfg.Kafka.Enabled {
		log.Printf("kafka: connected brokers=%v topic=%s", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/david-shiko/rubik-sub000/internal/config"
	"github.com/david-shiko/rubik-sub000/internal/db"
	"github.com/david-shiko/rubik-sub000/internal/logger"
)

func main() {
	// Load configuration
	_ = godotenv.Load()
	cfg := config.New()

	logger.InitFromConfig(cfg)
	log := logger.L()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	if err := db.SeedTestData(database, cfg.Matcher.DefaultsPrefix); err != nil {
		log.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	log.Info("seeding completed")
}

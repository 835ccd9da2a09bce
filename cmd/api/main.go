package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"auths/internal/config"
	"auths/internal/httpserver"
	"auths/internal/logger"
	"auths/internal/service"
	"auths/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	lg := logger.New(cfg.LogLevel)
	defer lg.Sync()

	if cfg.DatabaseURL == "" {
		lg.Fatalw("DATABASE_URL is empty")
	}
	if cfg.JWTSecret == "" {
		lg.Fatalw("JWT_SECRET is empty")
	}
	db, err := store.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		lg.Fatalw("db connect failed", "driver", cfg.DBDriver, "error", err)
	}

	// Seeding runs to completion before any HTTP traffic.
	seeder := service.NewSeeder(db, cfg, lg)
	if err := seeder.Run(context.Background(), ""); err != nil {
		lg.Fatalw("seed failed", "error", err)
	}

	router := httpserver.NewRouter(db, cfg, lg)
	lg.Infow("listening", "port", cfg.HTTPPort)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.HTTPPort), router); err != nil {
		log.Fatal(err)
	}
}

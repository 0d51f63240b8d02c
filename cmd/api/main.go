package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"labfit/adapters/api"
	"labfit/internal/config"
	"labfit/internal/container"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	c, err := container.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer c.Shutdown(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Database.Enabled() {
		if err := c.InitWithDatabase(ctx); err != nil {
			log.Fatalf("Failed to initialize result store: %v", err)
		}
	}

	apiConfig := api.DefaultConfig()
	apiConfig.Addr = ":" + cfg.Server.Port
	apiConfig.Digits = cfg.Report.Digits

	server := api.NewServer(apiConfig, c.Fits, c.FitRepo, c.Logger)
	if err := server.ListenAndServe(ctx); err != nil {
		log.Fatalf("API server failed: %v", err)
	}
}

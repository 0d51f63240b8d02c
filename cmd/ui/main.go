package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"labfit/internal/config"
	"labfit/internal/container"
	"labfit/ui"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	c, err := container.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}

	server, err := ui.NewServer(ui.Config{
		Addr:    ":" + cfg.Server.UIPort,
		GinMode: cfg.Server.GinMode,
		Digits:  cfg.Report.Digits,
	}, c.Fits, c.Logger)
	if err != nil {
		log.Fatal("Failed to create UI server:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Fatal(server.Start(ctx))
}

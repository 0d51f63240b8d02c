package main

import (
	"context"
	"log"
	"time"

	"labfit/internal/config"
	"labfit/internal/container"
	"labfit/internal/migration"

	"github.com/joho/godotenv"
)

// migrate applies the result store schema and exits
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if !cfg.Database.Enabled() {
		log.Fatal("DATABASE_URL is required")
	}

	c, err := container.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer c.Shutdown(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// InitWithDatabase runs every migration step
	if err := c.InitWithDatabase(ctx); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	for _, step := range migration.Steps() {
		log.Printf("applied %s", step.Name)
	}
	log.Printf("Migration complete: schema %s", migration.NewRunner().Version())
}

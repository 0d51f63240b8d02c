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
	"labfit/internal/errors"
	"labfit/ui"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

// main serves the JSON API and the report UI from one process
func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := appContainer.InitWithDatabase(ctx); err != nil {
		if errors.GetCode(err) != errors.CodeStoreDisabled {
			log.Fatalf("Failed to initialize result store: %v", err)
		}
		log.Println("DATABASE_URL not set, stored results are disabled")
	}

	apiConfig := api.DefaultConfig()
	apiConfig.Addr = ":" + appConfig.Server.Port
	apiConfig.Digits = appConfig.Report.Digits
	apiServer := api.NewServer(apiConfig, appContainer.Fits, appContainer.FitRepo, appContainer.Logger)

	uiServer, err := ui.NewServer(ui.Config{
		Addr:    ":" + appConfig.Server.UIPort,
		GinMode: appConfig.Server.GinMode,
		Digits:  appConfig.Report.Digits,
	}, appContainer.Fits, appContainer.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize UI server: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return apiServer.ListenAndServe(gctx) })
	g.Go(func() error { return uiServer.Start(gctx) })

	if err := g.Wait(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

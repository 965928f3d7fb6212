package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"catalog/storefront/internal/client"
	"catalog/storefront/internal/config"
	"catalog/storefront/internal/proxy"
	"catalog/storefront/internal/repository"
	"catalog/storefront/internal/service"
	"catalog/storefront/internal/state"
	"catalog/storefront/internal/tui"
	"catalog/storefront/internal/view"

	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := config.ConfigureLogger(cfg.Log); err != nil {
		log.Fatalf("Failed to configure logger: %v", err)
	}

	// the terminal belongs to the browser, logs go to a file
	logPath := filepath.Join(os.TempDir(), "catalog-browse.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalogClient := client.NewCatalogClient(cfg.Catalog, proxy.NewSupplier(ctx, cfg.Catalog.Proxies, cfg.Catalog.ProxyCheckURL, cfg.Catalog.ProxyCheckRate))
	defer catalogClient.Close()

	svc := service.NewService(
		catalogClient,
		state.NewMemorySelectionStore(0),
		nil,
		repository.NewLogOrderIntentRepository(),
		view.NewBuilder(cfg.Catalog.CheckoutURL),
		cfg.Redis.MinIdleTime,
	)

	if err := tui.Run(ctx, svc); err != nil {
		log.Errorf("Browser exited with error: %v", err)
		os.Exit(1)
	}
}

package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/SectionPortal/backend/internal/infrastructure/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags override environment
	flag.StringVar(&cfg.Server.Port, "port", cfg.Server.Port, "Server port")
	flag.StringVar(&cfg.Server.Host, "host", cfg.Server.Host, "Server host")
	flag.BoolVar(&cfg.Logging.Development, "dev", cfg.Logging.Development, "Development mode (console logs, gin debug)")
	flag.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "Log level")
	flag.StringVar(&cfg.Navigation.Path, "navigation", cfg.Navigation.Path, "Navigation file or directory")
	flag.StringVar(&cfg.Catalog.BaseURL, "catalog-url", cfg.Catalog.BaseURL, "Program catalog base URL (empty reads -catalog-dir)")
	flag.StringVar(&cfg.Catalog.Dir, "catalog-dir", cfg.Catalog.Dir, "Program catalog directory")
	flag.StringVar(&cfg.Modules.Root, "modules", cfg.Modules.Root, "Script module root")
	flag.BoolVar(&cfg.Modules.Watch, "watch", cfg.Modules.Watch, "Reindex script modules on change")
	flag.Parse()

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-sigChan:
		log.Println("Shutting down gracefully...")
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		_ = srv.Close()
		log.Fatalf("Server error: %v", err)
	}
}

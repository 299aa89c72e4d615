package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/GameWarden/internal/infrastructure/config"
	"github.com/GriffinCanCode/GameWarden/internal/infrastructure/server"
)

func main() {
	// Parse flags
	port := flag.String("port", "", "Listen port (overrides PORT)")
	driver := flag.String("driver", "", "Game driver, webdriver or sim (overrides DRIVER)")
	driverURL := flag.String("driver-url", "", "WebDriver endpoint (overrides DRIVER_URL)")
	profile := flag.String("profile", "", "Game profile file (overrides PROFILE_PATH)")
	dataDir := flag.String("data-dir", "", "Data directory (overrides DATA_DIR)")
	dev := flag.Bool("dev", false, "Development mode: colored logs, debug level")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// CLI flags override environment
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *driver != "" {
		cfg.Driver.Kind = *driver
	}
	if *driverURL != "" {
		cfg.Driver.URL = *driverURL
	}
	if *profile != "" {
		cfg.Game.ProfilePath = *profile
	}
	if *dataDir != "" {
		cfg.Store.Dir = *dataDir
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Create server
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
		log.Fatalf("Server error: %v", err)
	}
}

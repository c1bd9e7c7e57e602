package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"srcds-admin/internal/config"
	"srcds-admin/internal/crash"
	"srcds-admin/internal/handler"
	"srcds-admin/internal/logger"
	"srcds-admin/internal/service"
	"srcds-admin/internal/storage"
)

func main() {
	defer crash.RecoverWithStackAndExit("main")

	// Define command line flags
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging first
	if err := logger.Setup(cfg); err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	// Initialize database
	if err := storage.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Wire the restriction managers and load the caches
	service.Initialize(cfg)
	handler.Initialize(cfg)

	hub := handler.NewHub()
	if err := service.InitManagers(hub); err != nil {
		log.Fatalf("Failed to initialize restriction managers: %v", err)
	}
	for _, kind := range service.Kinds() {
		m, _ := service.Manager(kind)
		m.OnEvent(hub.BroadcastEvent)
	}
	if err := service.RefreshAll(); err != nil {
		log.Fatalf("Failed to load restriction caches: %v", err)
	}

	// Start HTTP server in a goroutine
	server := handler.NewServer(cfg, handler.NewRouter(hub))
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	log.Println("srcds-admin is running")

	// Create a channel for receiving OS signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Wait for signal
	sig := <-sigChan
	log.Printf("Received signal: %v, shutting down...", sig)

	// Gracefully shutdown server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Server gracefully stopped")
}

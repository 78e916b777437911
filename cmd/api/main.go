package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openalpha/yieldvault/api"
)

func main() {
	// Command line flags
	host := flag.String("host", "0.0.0.0", "Server host")
	port := flag.Int("port", 8080, "Server port")
	mockMode := flag.Bool("mock", false, "Enable mock data mode")
	keeperMode := flag.Bool("keeper", false, "Enable keeper mode (in-memory vault engine)")
	benchMode := flag.Bool("bench", false, "Enable benchmark mode (no rate limiting)")
	flag.Parse()

	// Create configuration
	config := &api.Config{
		Host:             *host,
		Port:             *port,
		ReadTimeout:      30 * time.Second,
		WriteTimeout:     30 * time.Second,
		MockMode:         *mockMode,
		DisableRateLimit: *benchMode,
	}
	if *benchMode {
		log.Println("Benchmark mode: Rate limiting disabled")
	}

	// Create server
	var server *api.Server
	if *keeperMode {
		var err error
		server, err = api.NewServerWithKeeperService(config)
		if err != nil {
			log.Fatalf("Failed to create keeper service: %v", err)
		}
		log.Println("Using KeeperService (in-memory vault engine)")
	} else {
		server = api.NewServer(config)
	}

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("YieldVault API Server started on %s:%d", *host, *port)
	log.Printf("Mock mode: %v", *mockMode)
	log.Printf("WebSocket endpoint: ws://%s:%d/ws", *host, *port)
	log.Printf("Health check: http://%s:%d/health", *host, *port)
	log.Printf("Metrics: http://%s:%d/metrics", *host, *port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server exited")
}

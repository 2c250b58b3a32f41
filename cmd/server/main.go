/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the rent lifecycle engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load environment configuration (.env supported)
  2. Parse command-line flags (flags override environment)
  3. Initialize SQLite store
  4. Wire lifecycle service, analytics, metrics, and API handler
  5. Start overdue sweep and HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the overdue sweep
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/rent.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run on different port
  ./server -port=3000

ENVIRONMENT:
  PORT, DB_PATH, CORS_ORIGINS, METRICS_ENABLED,
  OVERDUE_SWEEP_ENABLED, OVERDUE_SWEEP_INTERVAL

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/rent-engine/analytics"
	"github.com/warp/rent-engine/api"
	"github.com/warp/rent-engine/config"
	"github.com/warp/rent-engine/store/sqlite"
	"github.com/warp/rent-engine/tenancy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags override the environment
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Wire domain services
	svc := tenancy.NewService(store, nil)
	stats := analytics.NewService(store, nil)

	var metrics *api.Metrics
	if cfg.MetricsOn {
		metrics = api.NewMetrics()
	}

	handler := api.NewHandler(svc, stats, store, metrics)
	router := api.NewRouter(handler, api.RouterOptions{
		CORSOrigins: cfg.CORSOrigins,
		Metrics:     metrics,
	})

	// Background overdue sweep
	sweep := api.NewOverdueSweep(store, stats, metrics)
	sweep.CheckInterval = cfg.SweepInterval
	sweep.Enabled = cfg.SweepOn
	sweep.Start()
	defer sweep.Stop()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

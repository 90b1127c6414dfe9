package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/jobtracker/internal/api"
	"github.com/ignite/jobtracker/internal/config"
	"github.com/ignite/jobtracker/internal/pkg/logger"
	"github.com/ignite/jobtracker/internal/service/application"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func main() {
	defaultPath := "config/config.yaml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		defaultPath = p
	}
	configPath := flag.String("config", defaultPath, "path to the YAML config file")
	flag.Parse()

	log.Println("╔════════════════════════════════════════════════════════════╗")
	log.Println("║  Job Tracker Backend (cmd/server/main.go)                  ║")
	log.Println("║  Job application CRUD over a document store                ║")
	log.Println("╚════════════════════════════════════════════════════════════╝")

	// Load configuration
	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Printf("[config] %v, using INFO", err)
	}
	logger.SetLevel(level)
	logger.SetRedactPII(cfg.Log.Redact())

	// Pre-flight check: verify the target port is available
	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", cfg.Server.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect the document store. A store that cannot be reached leaves the
	// service unconfigured: diagnostics still answer and CRUD reports
	// "Database not configured".
	connectCtx, connectCancel := context.WithTimeout(ctx, 15*time.Second)
	store, closeStore, err := openStore(connectCtx, cfg.Store)
	connectCancel()
	if err != nil {
		logger.Error("store unavailable, continuing without a database", "type", cfg.Store.Type, "error", err)
	}
	defer closeStore()

	svc := application.NewService(store)
	if svc.Configured() {
		logger.Info("store connected", "type", svc.StoreName(), "collection", cfg.Store.Collection)
	}

	server := api.NewServer(cfg, svc)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/intraportal/portal-assistant/api"
	"github.com/intraportal/portal-assistant/assistant"
	"github.com/intraportal/portal-assistant/config"
	"github.com/intraportal/portal-assistant/inference"
	"github.com/intraportal/portal-assistant/policy"
	"github.com/intraportal/portal-assistant/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting portal assistant...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("Inference provider: %s", cfg.InferenceBaseURL)

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize inference client
	client := inference.NewHTTPClient(cfg.InferenceBaseURL, cfg.InferenceAPIKey, cfg.InferenceModel, cfg.InferenceTimeout)

	// Initialize access policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize the assistant subsystem
	sessions := assistant.NewSessionManager(db, client, cfg)
	coordinator := assistant.NewCoordinator(client, cfg.CancelGrace)
	orchestrator := assistant.NewOrchestrator(sessions, coordinator, client, cfg)
	history := assistant.NewHistory(sessions, client)

	// Initialize handler
	h := api.NewHandler(orchestrator, sessions, history, policyEngine)

	// Create Echo server
	server := echo.New()
	server.HideBanner = true

	// Middleware
	server.Use(middleware.Logger())
	server.Use(middleware.Recover())
	server.Use(middleware.CORS())

	// Register routes
	h.RegisterRoutes(server)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Assistant API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Assistant stopped")
}

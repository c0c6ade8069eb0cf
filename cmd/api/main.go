// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aislecart-ai/shopping-assistant/internal/config"
	"github.com/aislecart-ai/shopping-assistant/internal/events"
	"github.com/aislecart-ai/shopping-assistant/internal/handler"
	"github.com/aislecart-ai/shopping-assistant/internal/llm"
	"github.com/aislecart-ai/shopping-assistant/internal/middleware"
	"github.com/aislecart-ai/shopping-assistant/internal/service"
	"github.com/aislecart-ai/shopping-assistant/internal/store"
	"github.com/aislecart-ai/shopping-assistant/pkg/logger"
	"github.com/aislecart-ai/shopping-assistant/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "shopping-assistant", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", "error", err)
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the durable store
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	// Connect to NATS for turn events when configured
	var publisher *events.Publisher
	if cfg.NATSURL != "" {
		natsClient, err := events.Connect(ctx, events.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Warn("failed to connect to NATS, turn events disabled", "error", err)
		} else {
			defer natsClient.Close()
			publisher = events.NewPublisher(natsClient)
			if err := publisher.EnsureStream(ctx); err != nil {
				log.Warn("failed to ensure turn events stream", "error", err)
			}
		}
	}

	// Initialize the generation engine
	var engine llm.Client
	if cfg.AnthropicAPIKey != "" {
		engine, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey)
	} else if cfg.OpenAIAPIKey != "" {
		engine, err = llm.NewOpenAIClient(cfg.OpenAIAPIKey)
	} else {
		log.Error("no generation engine API key configured")
		os.Exit(1)
	}
	if err != nil {
		log.Error("failed to create generation engine client", "error", err)
		os.Exit(1)
	}

	// Initialize services
	resolver := service.NewConversationResolver(repo, nil, log)
	orchestrator := service.NewTurnOrchestrator(repo, resolver, engine, publisher, log, cfg.SystemPrompt, cfg.LLMModel)
	historyReader := service.NewHistoryReader(repo)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(repo)
	chatHandler := handler.NewChatHandler(orchestrator, log, cfg.TurnTimeout)
	historyHandler := handler.NewHistoryHandler(historyReader, log)
	productHandler := handler.NewProductHandler(repo, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no identity required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes; identity is optional on the chat path and enforced by the
	// history handler itself.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(middleware.JWTIdentityResolver(cfg.JWTSecret)))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/chat", chatHandler.Chat)
		r.Get("/chat/history", historyHandler.GetHistory)
		r.Get("/products", productHandler.List)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

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

	"chatbox/internal/api"
	"chatbox/internal/config"
	"chatbox/internal/core"
	"chatbox/internal/store"
	"chatbox/web"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Initialize document store
	ctx := context.Background()
	dbStore, err := store.NewMongoStore(ctx, config.AppConfig.MongoURI, config.AppConfig.MongoDatabase)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := dbStore.Close(context.Background()); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}
	}()

	// Initialize LLM service
	llmService := core.NewLLMService(config.AppConfig.GeminiAPIKey)
	defer llmService.Close()

	// Initialize Chat service
	chatService := core.NewChatService(dbStore, llmService)

	// Embedded browser UI
	staticFS, err := web.GetFileSystem()
	if err != nil {
		log.Fatalf("Failed to load embedded web assets: %v", err)
	}

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(chatService, config.AppConfig.IsDevelopment())
	router := api.NewRouter(apiHandler, staticFS)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give active connections time to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}

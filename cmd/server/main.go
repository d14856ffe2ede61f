package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ragstack/chat-api/internal/api"
	"github.com/ragstack/chat-api/internal/config"
	"github.com/ragstack/chat-api/internal/core"
	"github.com/ragstack/chat-api/internal/llm"
	"github.com/ragstack/chat-api/internal/llm/google"
	"github.com/ragstack/chat-api/internal/llm/openai"
	"github.com/ragstack/chat-api/internal/store"
	"github.com/ragstack/chat-api/internal/vectorstore/qdrant"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	if level, err := log.ParseLevel(config.AppConfig.LogLevel); err == nil {
		log.SetLevel(level)
	}

	// Command line flag for document ingestion
	ingestFlag := flag.String("ingest", "", "Ingest documents from the given text file and exit")
	flag.Parse()

	ctx := context.Background()

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabasePath)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer dbStore.Close()

	// Initialize vector store
	vectors := qdrant.NewStore(qdrant.Config{
		URL:        config.AppConfig.QdrantURL,
		APIKey:     config.AppConfig.QdrantAPIKey,
		Collection: config.AppConfig.QdrantCollection,
	})
	if err := vectors.EnsureCollection(ctx, config.AppConfig.EmbeddingDim); err != nil {
		log.WithError(err).Fatal("Failed to ensure Qdrant collection")
	}

	// Initialize LLM provider
	var (
		embedder  llm.Embedder
		generator llm.Generator
	)
	switch config.AppConfig.LLMProvider {
	case config.ProviderGoogle:
		client, err := google.NewClient(ctx, config.AppConfig.GeminiAPIKey)
		if err != nil {
			log.WithError(err).Fatal("Failed to create Gemini client")
		}
		defer client.Close()
		embedder, generator = client, client
	default:
		client := openai.NewClient(config.AppConfig.OpenAIAPIKey)
		embedder, generator = client, client
	}

	// Initialize services
	ragService := core.NewRAGService(vectors, embedder, generator)
	chatService := core.NewChatService(dbStore, ragService)
	documentService := core.NewDocumentService(vectors, embedder)

	// Handle document ingestion if flag is set
	if *ingestFlag != "" {
		log.Infof("Starting document ingestion from %s...", *ingestFlag)
		numIngested, err := documentService.IngestFromFile(ctx, *ingestFlag)
		if err != nil {
			log.WithError(err).Fatal("Document ingestion failed")
		}
		log.Infof("Document ingestion complete. Ingested %d documents. Exiting.", numIngested)
		os.Exit(0)
	}

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(chatService, documentService)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatalf("Could not listen on %s", serverAddr)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Give active connections time to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}

	log.Info("Server exiting gracefully")
}

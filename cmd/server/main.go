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

	"morningo-backend/internal/config"
	"morningo-backend/internal/handlers"
	"morningo-backend/internal/repository"
	"morningo-backend/internal/router"
	"morningo-backend/internal/services"
)

func main() {
	log.Println("🚀 Starting Morningo Quiz Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Prepare Local Directories ────
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("✗ Failed to create upload directory: %v", err)
	}

	// ──── Step 3: Open Quiz Store ────
	store, err := repository.NewQuizStore(cfg.QuizStorePath())
	if err != nil {
		log.Fatalf("✗ Quiz store initialization failed: %v", err)
	}
	log.Printf("✓ Quiz store ready at %s", cfg.QuizStorePath())

	// ──── Step 4: Initialize Gemini Client ────
	geminiService, err := services.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiConcurrentReqs)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer geminiService.Close()
	log.Printf("✓ Gemini client initialized (%s)", cfg.GeminiModel)

	// ──── Initialize Services & Handlers ────
	fileExtractService := services.NewFileExtractService()
	uploadHandler := handlers.NewUploadHandler(cfg.UploadDir)
	quizHandler := handlers.NewQuizHandler(store, geminiService, fileExtractService, cfg.UploadDir)

	// ──── Step 5: Start HTTP Server ────
	r := router.New(uploadHandler, quizHandler, cfg.GeminiModel)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // quiz generation waits on the model
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Morningo Quiz Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

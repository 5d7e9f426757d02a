package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/uttree-health/platform/pkg/common/config"
	"github.com/uttree-health/platform/pkg/common/logger"
	"github.com/uttree-health/platform/pkg/embedding"
)

// EmbeddingService exposes the provider gateway over HTTP so other services
// can embed canonical documents without carrying provider credentials.
type EmbeddingService struct {
	client    *embedding.Client
	chunkSize int
}

func main() {
	logger.Init()
	cfg := config.Load()

	service := &EmbeddingService{
		client:    embedding.NewClient(cfg),
		chunkSize: cfg.EmbeddingChunkSize,
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheck).Methods("GET")
	router.HandleFunc("/api/v1/embed", service.handleEmbed).Methods("POST")
	router.HandleFunc("/api/v1/chunks", service.handleChunks).Methods("POST")

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.ServerHost, "8083"),
		Handler: router,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": "8083",
		}).Info("Embedding Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Embedding Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	logger.Log.Info("Embedding Service stopped")
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func (s *EmbeddingService) handleEmbed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	vector, err := s.client.Embed(r.Context(), req.Text)
	if err != nil {
		status := http.StatusBadGateway
		switch embedding.KindOf(err) {
		case embedding.EmptyInput:
			status = http.StatusBadRequest
		case embedding.MalformedResponse:
			status = http.StatusBadGateway
		case embedding.ProviderUnavailable:
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"vector":     vector,
		"dimensions": len(vector),
	})
}

// handleChunks previews how a document would be split before embedding;
// useful when tuning the chunk size against a provider's context limit.
func (s *EmbeddingService) handleChunks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	chunks := embedding.Chunks(req.Text, s.chunkSize)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"chunks": chunks,
		"count":  len(chunks),
	})
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/uttree-health/platform/pkg/clinical"
	"github.com/uttree-health/platform/pkg/common/config"
	"github.com/uttree-health/platform/pkg/common/database"
	"github.com/uttree-health/platform/pkg/common/kafka"
	"github.com/uttree-health/platform/pkg/common/logger"
	"github.com/uttree-health/platform/pkg/ingest"
	"github.com/uttree-health/platform/pkg/observability/metrics"
)

func main() {
	logger.Init()
	metrics.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	clinicalRepo := clinical.NewRepository(db)
	if err := clinicalRepo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate clinical tables")
	}

	repo := ingest.NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate ingest tables")
	}

	validator := ingest.NewValidator(cfg.IngestAllowedSources)

	producer := kafka.NewProducer(cfg.AdmissionTopic)
	defer producer.Close()

	var dlqProducer *kafka.Producer
	if cfg.PipelineDLQTopic != "" {
		dlqProducer = kafka.NewProducer(cfg.PipelineDLQTopic)
		defer dlqProducer.Close()
	}

	svc := ingest.NewService(validator, repo, clinicalRepo, producer, dlqProducer, cfg.IngestStatusTTL)
	handler := ingest.NewHTTPHandler(svc, cfg.MaxRequestBody)

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods(http.MethodGet)

	handler.Register(router)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, "8081"),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": "8081",
		}).Info("Ingestion Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	go func() {
		ticker := time.NewTicker(12 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := svc.Cleanup(context.Background()); err != nil {
					logger.Log.WithError(err).Warn("cleanup job failed")
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				counts, err := repo.CountByStatus(ctx)
				if err != nil {
					logger.Log.WithError(err).Warn("metrics sampling failed")
					continue
				}
				metrics.ObserveIngestCounts(
					int(counts[ingest.StatusAccepted]),
					int(counts[ingest.StatusPublished]),
					int(counts[ingest.StatusFailed]),
				)
			case <-ctx.Done():
				return
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Ingestion Service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("Ingestion Service stopped")
}

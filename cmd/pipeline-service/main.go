package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/uttree-health/platform/pkg/clinical"
	"github.com/uttree-health/platform/pkg/common/config"
	"github.com/uttree-health/platform/pkg/common/database"
	"github.com/uttree-health/platform/pkg/common/kafka"
	"github.com/uttree-health/platform/pkg/common/logger"
	"github.com/uttree-health/platform/pkg/common/models"
	"github.com/uttree-health/platform/pkg/embedding"
	"github.com/uttree-health/platform/pkg/graphstore"
	"github.com/uttree-health/platform/pkg/observability/metrics"
	"github.com/uttree-health/platform/pkg/pipeline"
	"github.com/uttree-health/platform/pkg/quadruple"
	"github.com/uttree-health/platform/pkg/storage"
	"github.com/uttree-health/platform/pkg/terminology"
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

	results := pipeline.NewRepository(db)
	if err := results.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate result tables")
	}

	catalog := terminology.DefaultCatalog()
	if cfg.TerminologyPath != "" {
		catalog, err = terminology.Load(cfg.TerminologyPath)
		if err != nil {
			logger.Log.WithError(err).Fatal("failed to load terminology catalog")
		}
	}
	builder := quadruple.NewBuilder(catalog)

	embedder := embedding.NewClient(cfg)

	producer := kafka.NewProducer(cfg.EmbeddedTopic)
	defer producer.Close()

	cache := storage.NewVectorCache(database.GetRedis(), cfg.VectorCacheTTL)

	opts := []pipeline.Option{
		pipeline.WithProducer(producer),
		pipeline.WithVectorCache(cache),
	}

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Neo4jPassword != "" {
		graph, err := graphstore.NewStore(cfg)
		if err != nil {
			logger.Log.WithError(err).Fatal("failed to connect to neo4j")
		}
		defer graph.Close(context.Background())
		graph.EnsureSchema(rootCtx)
		opts = append(opts, pipeline.WithGraphStore(graph))
	}

	runner := pipeline.NewRunner(clinicalRepo, builder, embedder, results, cfg.PipelineWorkers, cfg.AdmissionTimeout, opts...)

	consumer := kafka.NewConsumer(cfg.AdmissionTopic, cfg.PipelineGroupID)
	defer consumer.Close()

	go func() {
		err := consumer.Consume(rootCtx, func(ctx context.Context, event models.Event) error {
			id, ok := admissionIDFromEvent(event)
			if !ok {
				logger.Log.WithField("event_id", event.ID).Warn("event carries no admission id, dropping")
				return nil
			}
			result, _ := runner.ProcessAdmission(ctx, id)
			if result.Status == models.StatusFailed {
				return errors.New(result.Error)
			}
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Log.WithError(err).Error("consumer stopped")
		}
	}()

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w)
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/v1/results/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
		if err != nil {
			http.Error(w, "invalid admission id", http.StatusBadRequest)
			return
		}
		if cached, err := cache.Get(r.Context(), id); err == nil {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(cached)
			return
		}
		row, err := results.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, pipeline.ErrResultNotFound) {
				http.Error(w, "result not found", http.StatusNotFound)
				return
			}
			logger.Log.WithError(err).Error("failed to fetch result")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(row)
	}).Methods(http.MethodGet)

	// Batch mode: re-run every admission currently landed in postgres.
	router.HandleFunc("/api/v1/runs", func(w http.ResponseWriter, r *http.Request) {
		ids, err := clinicalRepo.ListAdmissionIDs(r.Context())
		if err != nil {
			logger.Log.WithError(err).Error("failed to list admissions")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		summary := runner.Run(rootCtx, ids)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
	}).Methods(http.MethodPost)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, "8082"),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": "8082",
		}).Info("Pipeline Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Pipeline Service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("Pipeline Service stopped")
}

// admissionIDFromEvent digs the admission id out of the event payload; JSON
// numbers arrive as float64.
func admissionIDFromEvent(event models.Event) (int64, bool) {
	raw, ok := event.Data["admission_id"]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}

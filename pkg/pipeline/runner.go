package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/uttree-health/platform/pkg/clinical"
	"github.com/uttree-health/platform/pkg/common/httpclient"
	"github.com/uttree-health/platform/pkg/common/kafka"
	"github.com/uttree-health/platform/pkg/common/logger"
	"github.com/uttree-health/platform/pkg/common/models"
	"github.com/uttree-health/platform/pkg/embedding"
	"github.com/uttree-health/platform/pkg/observability/metrics"
	"github.com/uttree-health/platform/pkg/quadruple"
	"github.com/uttree-health/platform/pkg/temporaltree"
)

// Embedder is the boundary toward the embedding provider.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// GraphStore is the boundary toward the graph/vector collaborator.
type GraphStore interface {
	Upsert(ctx context.Context, result models.AdmissionResult) error
}

// VectorCache keeps results hot for online readers; best-effort.
type VectorCache interface {
	Put(ctx context.Context, result models.AdmissionResult) error
}

// ResultSink persists per-admission outcomes.
type ResultSink interface {
	Save(ctx context.Context, result models.AdmissionResult, inputErrors int) error
}

// Runner drives admissions through the pipeline: load rows, build
// quadruples, fold the temporal tree, embed, persist. Admissions share no
// mutable state; the embedding provider's connection pool is the only
// shared resource and is bounded inside the gateway.
type Runner struct {
	clinical  *clinical.Repository
	builder   *quadruple.Builder
	embedder  Embedder
	graph     GraphStore
	cache     VectorCache
	results   ResultSink
	producer  *kafka.Producer
	workers   int
	admission time.Duration
}

type Option func(*Runner)

func WithGraphStore(g GraphStore) Option   { return func(r *Runner) { r.graph = g } }
func WithVectorCache(c VectorCache) Option { return func(r *Runner) { r.cache = c } }
func WithProducer(p *kafka.Producer) Option {
	return func(r *Runner) { r.producer = p }
}

func NewRunner(
	clinicalRepo *clinical.Repository,
	builder *quadruple.Builder,
	embedder Embedder,
	results ResultSink,
	workers int,
	admissionTimeout time.Duration,
	opts ...Option,
) *Runner {
	if workers <= 0 {
		workers = 1
	}
	r := &Runner{
		clinical:  clinicalRepo,
		builder:   builder,
		embedder:  embedder,
		results:   results,
		workers:   workers,
		admission: admissionTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes the given admissions across the bounded worker pool and
// reports run-level counts. One admission's failure never aborts the run.
func (r *Runner) Run(ctx context.Context, admissionIDs []int64) models.RunSummary {
	summary := models.RunSummary{
		Total:     len(admissionIDs),
		StartedAt: time.Now().UTC(),
	}

	ids := make(chan int64)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range ids {
				result, inputErrors := r.ProcessAdmission(ctx, id)
				metrics.AddInputErrors(inputErrors)
				mu.Lock()
				summary.InputErrors += inputErrors
				switch result.Status {
				case models.StatusSucceeded:
					metrics.AdmissionSucceeded()
					summary.Succeeded++
				case models.StatusSkipped:
					metrics.AdmissionSkipped()
					summary.Skipped++
				default:
					metrics.AdmissionFailed()
					summary.Failed++
				}
				mu.Unlock()
			}
		}()
	}

	for _, id := range admissionIDs {
		select {
		case ids <- id:
		case <-ctx.Done():
			// Remaining admissions count as failed; workers drain below.
			mu.Lock()
			summary.Failed++
			mu.Unlock()
		}
	}
	close(ids)
	wg.Wait()

	summary.FinishedAt = time.Now().UTC()
	logger.Log.WithFields(map[string]interface{}{
		"total":        summary.Total,
		"succeeded":    summary.Succeeded,
		"skipped":      summary.Skipped,
		"failed":       summary.Failed,
		"input_errors": summary.InputErrors,
	}).Info("Pipeline run finished")
	return summary
}

// ProcessAdmission runs one admission end-to-end under its own timeout so a
// slow embedding call cannot stall its siblings.
func (r *Runner) ProcessAdmission(ctx context.Context, admissionID int64) (models.AdmissionResult, int) {
	if r.admission > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.admission)
		defer cancel()
	}

	result := models.AdmissionResult{AdmissionID: admissionID}

	records, err := r.clinical.LoadAdmission(ctx, admissionID)
	if err != nil {
		return r.finish(ctx, result, 0, err), 0
	}

	quads, stats := r.builder.Build(records.Prescriptions, records.Labs, records.Concepts)
	result.QuadrupleCount = len(quads)
	if len(quads) > 0 {
		result.SubjectID = quads[0].SubjectID
	}

	result.Canonical = temporaltree.CanonicalString(admissionID, quads)
	result.SequenceLength = len(result.Canonical)

	if result.Canonical == "" {
		err := StructuralError{reason: errors.New("no usable quadruples")}
		logger.Log.WithField("admission_id", admissionID).Warn(err.Error())
		result.Status = models.StatusSkipped
		result.Error = err.Error()
		return r.finish(ctx, result, stats.InputErrors, nil), stats.InputErrors
	}

	vector, err := r.embedder.Embed(ctx, result.Canonical)
	if err != nil {
		return r.finish(ctx, result, stats.InputErrors, err), stats.InputErrors
	}
	result.Vector = vector

	if r.cache != nil {
		if cacheErr := r.cache.Put(ctx, result); cacheErr != nil {
			logger.Log.WithError(cacheErr).WithField("admission_id", admissionID).Warn("vector cache write failed")
		}
	}

	if r.graph != nil {
		// Transient bolt failures are worth a couple of retries; the upsert
		// is idempotent per admission id.
		err := httpclient.Retry(ctx, 3, 200*time.Millisecond, 2*time.Second, func() error {
			return r.graph.Upsert(ctx, result)
		})
		if err != nil {
			return r.finish(ctx, result, stats.InputErrors, err), stats.InputErrors
		}
	}

	result.Status = models.StatusSucceeded
	out := r.finish(ctx, result, stats.InputErrors, nil)

	if r.producer != nil {
		payload := map[string]interface{}{
			"admission_id":    out.AdmissionID,
			"subject_id":      out.SubjectID,
			"sequence_length": out.SequenceLength,
			"quadruple_count": out.QuadrupleCount,
			"status":          out.Status,
		}
		if pubErr := r.producer.PublishEvent(ctx, "admission-embedded", "pipeline-service", payload); pubErr != nil {
			logger.Log.WithError(pubErr).WithField("admission_id", out.AdmissionID).Error("failed to publish embedded event")
		}
	}

	return out, stats.InputErrors
}

// finish stamps the result, records the failure cause when present, and
// persists the row.
func (r *Runner) finish(ctx context.Context, result models.AdmissionResult, inputErrors int, cause error) models.AdmissionResult {
	if cause != nil {
		result.Status = models.StatusFailed
		result.Error = cause.Error()
		logger.Log.WithError(cause).WithFields(map[string]interface{}{
			"admission_id": result.AdmissionID,
			"gateway":      embedding.IsGatewayError(cause),
		}).Error("admission pipeline failed")
	}
	result.CompletedAt = time.Now().UTC()

	if r.results != nil {
		// Persist with a fresh context so a timed-out admission still
		// records its failure.
		saveCtx := ctx
		if ctx.Err() != nil {
			var cancel context.CancelFunc
			saveCtx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
		}
		if err := r.results.Save(saveCtx, result, inputErrors); err != nil {
			logger.Log.WithError(err).WithField("admission_id", result.AdmissionID).Error("failed to persist admission result")
		}
	}
	return result
}

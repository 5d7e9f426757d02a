package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	admissionsSucceeded atomic.Int64
	admissionsSkipped   atomic.Int64
	admissionsFailed    atomic.Int64
	inputErrorsDropped  atomic.Int64
	embeddingRetries    atomic.Int64
	batchesAccepted     atomic.Int64
	batchesPublished    atomic.Int64
	batchesFailed       atomic.Int64
)

func Init() {}

func AdmissionSucceeded() { admissionsSucceeded.Add(1) }
func AdmissionSkipped()   { admissionsSkipped.Add(1) }
func AdmissionFailed()    { admissionsFailed.Add(1) }

func AddInputErrors(n int) {
	inputErrorsDropped.Add(int64(n))
}

func EmbeddingRetried() { embeddingRetries.Add(1) }

func ObserveIngestCounts(accepted, published, failed int) {
	batchesAccepted.Store(int64(accepted))
	batchesPublished.Store(int64(published))
	batchesFailed.Store(int64(failed))
}

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP uttree_pipeline_admissions_succeeded_total Number of admissions embedded and persisted since start.\n")
	fmt.Fprintf(w, "# TYPE uttree_pipeline_admissions_succeeded_total counter\n")
	fmt.Fprintf(w, "uttree_pipeline_admissions_succeeded_total %d\n", admissionsSucceeded.Load())

	fmt.Fprintf(w, "# HELP uttree_pipeline_admissions_skipped_total Number of admissions skipped for lack of usable quadruples.\n")
	fmt.Fprintf(w, "# TYPE uttree_pipeline_admissions_skipped_total counter\n")
	fmt.Fprintf(w, "uttree_pipeline_admissions_skipped_total %d\n", admissionsSkipped.Load())

	fmt.Fprintf(w, "# HELP uttree_pipeline_admissions_failed_total Number of admissions that failed processing since start.\n")
	fmt.Fprintf(w, "# TYPE uttree_pipeline_admissions_failed_total counter\n")
	fmt.Fprintf(w, "uttree_pipeline_admissions_failed_total %d\n", admissionsFailed.Load())

	fmt.Fprintf(w, "# HELP uttree_pipeline_input_errors_total Number of malformed source rows dropped during quadruple building.\n")
	fmt.Fprintf(w, "# TYPE uttree_pipeline_input_errors_total counter\n")
	fmt.Fprintf(w, "uttree_pipeline_input_errors_total %d\n", inputErrorsDropped.Load())

	fmt.Fprintf(w, "# HELP uttree_embedding_retries_total Number of retried embedding provider calls since start.\n")
	fmt.Fprintf(w, "# TYPE uttree_embedding_retries_total counter\n")
	fmt.Fprintf(w, "uttree_embedding_retries_total %d\n", embeddingRetries.Load())

	fmt.Fprintf(w, "# HELP uttree_ingest_batches_accepted_total Number of ingest batches accepted in the latest sampling window.\n")
	fmt.Fprintf(w, "# TYPE uttree_ingest_batches_accepted_total gauge\n")
	fmt.Fprintf(w, "uttree_ingest_batches_accepted_total %d\n", batchesAccepted.Load())

	fmt.Fprintf(w, "# HELP uttree_ingest_batches_published_total Number of ingest batches published in the latest sampling window.\n")
	fmt.Fprintf(w, "# TYPE uttree_ingest_batches_published_total gauge\n")
	fmt.Fprintf(w, "uttree_ingest_batches_published_total %d\n", batchesPublished.Load())

	fmt.Fprintf(w, "# HELP uttree_ingest_batches_failed_total Number of ingest batches failed in the latest sampling window.\n")
	fmt.Fprintf(w, "# TYPE uttree_ingest_batches_failed_total gauge\n")
	fmt.Fprintf(w, "uttree_ingest_batches_failed_total %d\n", batchesFailed.Load())
}

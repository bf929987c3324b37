package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	ingestionRuns      atomic.Int64
	reviewsIngested    atomic.Int64
	sourceFallbacks    atomic.Int64
	ingestionFailures  atomic.Int64
	approvalsApplied   atomic.Int64
	validationFailures atomic.Int64
)

// ObserveIngestion records one finished ingestion run.
func ObserveIngestion(ingested int, fellBack bool) {
	ingestionRuns.Add(1)
	reviewsIngested.Add(int64(ingested))
	if fellBack {
		sourceFallbacks.Add(1)
	}
}

func ObserveIngestionFailure() {
	ingestionFailures.Add(1)
}

func ObserveApproval() {
	approvalsApplied.Add(1)
}

func ObserveValidationFailure() {
	validationFailures.Add(1)
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	IngestionRuns      int64
	ReviewsIngested    int64
	SourceFallbacks    int64
	IngestionFailures  int64
	ApprovalsApplied   int64
	ValidationFailures int64
}

func Current() Snapshot {
	return Snapshot{
		IngestionRuns:      ingestionRuns.Load(),
		ReviewsIngested:    reviewsIngested.Load(),
		SourceFallbacks:    sourceFallbacks.Load(),
		IngestionFailures:  ingestionFailures.Load(),
		ApprovalsApplied:   approvalsApplied.Load(),
		ValidationFailures: validationFailures.Load(),
	}
}

func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WritePrometheus(w)
	})
}

func WritePrometheus(w http.ResponseWriter) {
	s := Current()
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	writeCounter(w, "reviews_ingestion_runs_total", "Number of completed review ingestion runs.", s.IngestionRuns)
	writeCounter(w, "reviews_ingested_total", "Number of reviews upserted across all ingestion runs.", s.ReviewsIngested)
	writeCounter(w, "reviews_source_fallbacks_total", "Number of ingestion runs that fell back from the Hostaway API to the fixture.", s.SourceFallbacks)
	writeCounter(w, "reviews_ingestion_failures_total", "Number of ingestion runs that failed outright.", s.IngestionFailures)
	writeCounter(w, "reviews_approvals_total", "Number of approval changes applied.", s.ApprovalsApplied)
	writeCounter(w, "reviews_validation_failures_total", "Number of requests or payloads rejected by validation.", s.ValidationFailures)
}

func writeCounter(w http.ResponseWriter, name, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s counter\n", name)
	fmt.Fprintf(w, "%s %d\n", name, value)
}

// Package prometheus records engine measurements as Prometheus metrics.
//
// The CLI runs one check per process, so metrics are not scraped; they
// are written to a node-exporter textfile after each run instead.
package prometheus

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
)

// Ensure Recorder implements the interface.
var _ driven.MetricsRecorder = (*Recorder)(nil)

const namespace = "sercha_comply"

// Recorder owns a private registry with the compliance metrics.
type Recorder struct {
	registry *prometheus.Registry

	assessments        *prometheus.CounterVec
	assessmentDuration *prometheus.HistogramVec
	retrievalHits      *prometheus.CounterVec
	retries            *prometheus.CounterVec
	runs               *prometheus.CounterVec
	runDuration        prometheus.Histogram
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		assessments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      "Rule assessments by rule-set and verdict.",
		}, []string{"rule_set", "verdict"}),
		assessmentDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assessment_duration_seconds",
			Help:      "Duration of a single rule assessment, including retries.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"rule_set"}),
		retrievalHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_hits_total",
			Help:      "Rule retrieval hits before (raw) and after (unique) deduplication.",
		}, []string{"rule_set", "kind"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Provider call retries by reason.",
		}, []string{"reason"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Compliance runs by final state.",
		}, []string{"state"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of a compliance run.",
			Buckets:   prometheus.ExponentialBuckets(5, 2, 8),
		}),
	}
}

// ObserveAssessment records one finished rule assessment.
func (r *Recorder) ObserveAssessment(ruleSet, verdict string, duration time.Duration) {
	r.assessments.WithLabelValues(ruleSet, verdict).Inc()
	r.assessmentDuration.WithLabelValues(ruleSet).Observe(duration.Seconds())
}

// ObserveRetrieval records raw and deduplicated hit counts.
func (r *Recorder) ObserveRetrieval(ruleSet string, rawHits, uniqueHits int) {
	r.retrievalHits.WithLabelValues(ruleSet, "raw").Add(float64(rawHits))
	r.retrievalHits.WithLabelValues(ruleSet, "unique").Add(float64(uniqueHits))
}

// ObserveRetry records a provider retry.
func (r *Recorder) ObserveRetry(reason string) {
	r.retries.WithLabelValues(reason).Inc()
}

// ObserveRun records a finished run.
func (r *Recorder) ObserveRun(state string, duration time.Duration) {
	r.runs.WithLabelValues(state).Inc()
	r.runDuration.Observe(duration.Seconds())
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes all metrics to path in the text exposition format.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

package driven

import "time"

// MetricsRecorder receives engine measurements.
// Implementations must be safe for concurrent use.
type MetricsRecorder interface {
	// ObserveAssessment records one finished rule assessment.
	ObserveAssessment(ruleSet, verdict string, duration time.Duration)

	// ObserveRetrieval records raw and deduplicated hit counts for a rule-set.
	ObserveRetrieval(ruleSet string, rawHits, uniqueHits int)

	// ObserveRetry records a provider retry.
	ObserveRetry(reason string)

	// ObserveRun records a finished run.
	ObserveRun(state string, duration time.Duration)
}

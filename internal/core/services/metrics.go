package services

import (
	"time"

	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
)

// Ensure noopMetrics implements the interface.
var _ driven.MetricsRecorder = noopMetrics{}

// noopMetrics discards all measurements.
type noopMetrics struct{}

func (noopMetrics) ObserveAssessment(string, string, time.Duration) {}
func (noopMetrics) ObserveRetrieval(string, int, int)               {}
func (noopMetrics) ObserveRetry(string)                             {}
func (noopMetrics) ObserveRun(string, time.Duration)                {}

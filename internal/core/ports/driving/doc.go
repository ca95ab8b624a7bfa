// Package driving holds the interfaces the CLI calls into.
//
// ComplianceService runs checks and batches, IngestService indexes
// documents and rule sources, and the remaining services are read-side
// views over stored documents, reports and settings. Implementations live
// in internal/core/services.
package driving

// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for a compliance run to function:
//
//   - LLMService: Query planning, verdicts and executive summaries
//   - EmbeddingService: Query and chunk embeddings
//   - VectorIndex: Rule and evidence retrieval (Weaviate)
//   - DocumentStore: Processed document persistence
//   - ReportStore: Append-only report persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ProgressSink / ProgressStore: Advisory progress reporting
//   - MetricsRecorder: Prometheus metrics
//   - PromptStore: User-editable prompt templates (embedded defaults otherwise)
//   - NormaliserRegistry: File loading for the ingest commands
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven

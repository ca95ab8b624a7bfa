// Package sqlite provides a unified SQLite-based implementation of the
// persistence ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. It implements the store interfaces through a single database connection:
//
//   - DocumentStore: documents, their elements and tables, and chunks
//   - ReportStore: append-only compliance reports
//   - ProgressStore: pollable job progress (compliance_progress)
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.sercha-comply/data/compliance.db
package sqlite

// Package domain defines the core business entities for sercha-comply.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A processed document with its extracted elements and tables
//   - Chunk: A retrieval unit derived from one or more elements
//   - RuleSet: A named body of regulatory requirements and its collection
//   - RuleCandidate: A rule passage retrieved for assessment
//   - AssessmentResult: The verdict for one (document, rule) pair
//   - ComplianceReport: The aggregated, persisted outcome of a run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

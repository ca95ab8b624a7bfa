// Package services implements the driving port interfaces.
// Services contain the compliance engine and orchestrate
// calls to driven ports (adapters).
//
// A check runs in phases: the document is decomposed into sections, each
// rule-set's rules are retrieved from the vector index, every rule is
// assessed by the LLM against located evidence, and the verdicts are
// synthesised into a scored report.
package services

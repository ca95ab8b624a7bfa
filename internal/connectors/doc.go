// Package connectors holds document sources that feed ingestion.
// Each source knows how to enumerate raw files from one location type.
package connectors

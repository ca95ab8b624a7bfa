// Package normalisers provides implementations of the Normaliser interface
// for the document formats the ingest commands accept. Each normaliser
// turns the bytes of one MIME type into ordered elements and tables.
//
// Normalisers are registered with the Registry at startup. The registry
// picks the highest-priority normaliser for a file's MIME type, which is
// derived from the file extension when the caller does not set one.
package normalisers

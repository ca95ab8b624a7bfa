package domain

// RawDocument represents the bytes of a file handed to ingestion.
// It is the input of normalisation.
type RawDocument struct {
	// ID is the document identifier to assign. Empty means derive one.
	ID string

	// URI is the original location (file path, URL, etc).
	URI string

	// MIMEType is the content type (e.g., "application/json").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains caller-supplied attributes such as company or
	// fiscal_year.
	Metadata map[string]string
}

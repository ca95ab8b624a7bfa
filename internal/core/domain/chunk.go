package domain

import "strings"

// Chunk is a retrieval-sized unit of document text.
// A chunk carries the section context it was found under so that a
// search hit can be traced back to its place in the document.
type Chunk struct {
	// ID is deterministic for (document, element, sub-chunk index).
	ID string

	// DocumentID references the parent document.
	DocumentID string

	// SourceFile is the parent document's filename.
	SourceFile string

	// Text is the chunk body, prefixed with its section context.
	Text string

	// SectionPath lists ancestor section titles, outermost first.
	SectionPath []string

	// SectionHeader is the innermost section title.
	SectionHeader string

	// PageNumber is the page of the source element.
	PageNumber int

	// ElementType is the type of the source element.
	ElementType ElementType

	// ElementID is the id of the source element.
	ElementID string

	// ChunkIndex is the sub-chunk position, -1 for unsplit elements.
	ChunkIndex int

	// HasTable is true when the chunk was built from a table.
	HasTable bool

	// TableHTML is the raw table markup for table chunks.
	TableHTML string

	// CollectionType names the collection the chunk is destined for.
	CollectionType string

	// Extra holds caller-supplied attributes (e.g. "framework").
	Extra map[string]string
}

// SectionPathString joins the section path for display and indexing.
func (c Chunk) SectionPathString() string {
	return JoinSectionPath(c.SectionPath)
}

// JoinSectionPath renders a section path as "A > B > C".
func JoinSectionPath(path []string) string {
	return strings.Join(path, " > ")
}

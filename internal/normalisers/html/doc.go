// Package html converts extracted HTML fragments into plain text.
//
// The extractor emits tables as HTML markup alongside (sometimes empty)
// plain text. TableText renders a table row by row, one line per row with
// cells separated by " | ", so that a table chunk stays readable to both
// the embedding model and the LLM. Markup is parsed with golang.org/x/net/html,
// which tolerates the malformed fragments OCR pipelines commonly produce.
package html

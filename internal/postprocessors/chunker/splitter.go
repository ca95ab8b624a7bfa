package chunker

import (
	"github.com/tmc/langchaingo/textsplitter"
)

// DefaultSeparators lists split points in order of preference.
var DefaultSeparators = []string{"\n\n\n", "\n\n", "\n", ". ", " "}

// Splitter breaks narrative text that exceeds the chunk size into pieces.
type Splitter interface {
	Split(text string) []string
}

// RecursiveSplitter cuts text into windows of at most size characters.
// Each cut snaps back to the strongest separator inside the second half of
// the window, and consecutive pieces share exactly overlap characters.
type RecursiveSplitter struct {
	size       int
	overlap    int
	separators []string
}

// NewRecursiveSplitter creates a splitter with the default separators.
func NewRecursiveSplitter(size, overlap int) *RecursiveSplitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 4
	}
	return &RecursiveSplitter{size: size, overlap: overlap, separators: DefaultSeparators}
}

// Split returns the pieces of text in order.
func (s *RecursiveSplitter) Split(text string) []string {
	r := []rune(text)
	n := len(r)
	if n == 0 {
		return nil
	}
	if n <= s.size {
		return []string{text}
	}

	var pieces []string
	start := 0
	for {
		end := start + s.size
		if end >= n {
			pieces = append(pieces, string(r[start:]))
			break
		}

		cut := s.snap(r, start, end)
		pieces = append(pieces, string(r[start:cut]))

		next := cut - s.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return pieces
}

// snap returns the cut position for the window [start, end).
func (s *RecursiveSplitter) snap(r []rune, start, end int) int {
	minCut := start + max(s.overlap+1, s.size/2)
	if minCut > end {
		return end
	}

	for _, sep := range s.separators {
		sr := []rune(sep)
		for cut := end; cut >= minCut; cut-- {
			if cut-len(sr) < start {
				break
			}
			if hasRunes(r[cut-len(sr):cut], sr) {
				return cut
			}
		}
	}
	return end
}

func hasRunes(window, sep []rune) bool {
	for i := range sep {
		if window[i] != sep[i] {
			return false
		}
	}
	return true
}

// LangchainSplitter adapts the langchaingo recursive character splitter.
type LangchainSplitter struct {
	inner textsplitter.TextSplitter
}

// NewLangchainSplitter creates a langchaingo-backed splitter.
func NewLangchainSplitter(size, overlap int) *LangchainSplitter {
	seps := append(append([]string(nil), DefaultSeparators...), "")
	return &LangchainSplitter{
		inner: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
			textsplitter.WithSeparators(seps),
		),
	}
}

// Split returns the pieces produced by langchaingo. Text it cannot split
// is returned whole.
func (l *LangchainSplitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	parts, err := l.inner.SplitText(text)
	if err != nil || len(parts) == 0 {
		return []string{text}
	}
	return parts
}

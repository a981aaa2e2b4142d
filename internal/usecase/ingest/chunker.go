package ingest

import "strings"

// span is one chunk of source text with its rune offset into the original.
type span struct {
	Text   string
	Offset int
}

// chunker splits documents into overlapping windows, preferring to cut at
// paragraph or sentence boundaries so no chunk starts mid-sentence unless
// the text gives no choice.
type chunker struct {
	size    int // max chunk length in runes
	overlap int // runes shared between consecutive chunks
}

func newChunker(size, overlap int) *chunker {
	return &chunker{size: size, overlap: overlap}
}

// Split covers the whole text: concatenating the chunks minus their overlaps
// reproduces the input. Empty or whitespace-only input yields no chunks.
func (c *chunker) Split(text string) []span {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	var spans []span

	start := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			spans = append(spans, span{Text: string(runes[start:]), Offset: start})
			break
		}

		if cut := boundaryBefore(runes, start, end); cut > start {
			end = cut
		}
		spans = append(spans, span{Text: string(runes[start:end]), Offset: start})

		next := end - c.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return spans
}

// boundaryBefore finds the latest paragraph or sentence boundary in the back
// half of the window [start, end). Returns start when none exists, which
// tells the caller to keep the hard cut.
func boundaryBefore(runes []rune, start, end int) int {
	floor := start + (end-start)/2

	// Paragraph breaks win over sentence ends.
	for i := end - 1; i > floor; i-- {
		if runes[i] == '\n' && i > 0 && runes[i-1] == '\n' {
			return i + 1
		}
	}
	for i := end - 1; i > floor; i-- {
		if isSentenceEnd(runes, i) {
			return i + 1
		}
	}
	return start
}

func isSentenceEnd(runes []rune, i int) bool {
	switch runes[i] {
	case '.', '!', '?':
	default:
		return false
	}
	return i+1 < len(runes) && (runes[i+1] == ' ' || runes[i+1] == '\n')
}

package chunker

import (
	"strings"
	"unicode/utf8"
)

// separators are candidate split points in priority order: paragraph break,
// line break, sentence terminators, clause separators, then any space. A
// hard character cut is the fallback when none occur in range.
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", "; ", ", ", " "}

// Splitter cuts text into fragments no longer than chunkSize bytes, preferring
// natural boundaries, with consecutive fragments sharing overlap bytes. Cuts
// always land on rune boundaries, so fragments of valid UTF-8 input stay
// valid UTF-8.
type Splitter struct {
	chunkSize int
	overlap   int
}

// NewSplitter creates a Splitter. Non-positive arguments fall back to the
// package defaults.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultChunkOverlap
	}
	return &Splitter{
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// Split cuts text into fragments of at most chunkSize bytes. For each
// window it takes the latest occurrence of the highest-priority separator,
// cutting mid-word only when the window contains no separator at all.
// Whitespace-only fragments are dropped; short fragments are kept, the
// caller decides whether they are noise.
func (s *Splitter) Split(text string) []string {
	if len(text) <= s.chunkSize {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	var fragments []string
	start := 0

	for start < len(text) {
		end := start + s.chunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			end = s.cutPoint(text, start, end)
			if end <= start {
				// Chunk size smaller than the rune at start; take the
				// whole rune rather than loop.
				_, n := utf8.DecodeRuneInString(text[start:])
				end = start + n
			}
		}

		fragment := strings.TrimSpace(text[start:end])
		if fragment != "" {
			fragments = append(fragments, fragment)
		}

		if end >= len(text) {
			break
		}

		next := runeStart(text, end-s.overlap)
		if next <= start {
			// Overlap would revisit the same window; move on without it.
			next = end
		}
		start = next
	}

	return fragments
}

// cutPoint returns the index to cut the window [start, limit) at. Separators
// are tried in priority order; the cut lands just after the separator's last
// occurrence so terminators stay attached to their sentence.
func (s *Splitter) cutPoint(text string, start, limit int) int {
	window := text[start:limit]
	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx <= 0 {
			continue
		}
		return start + idx + len(sep)
	}
	// No separator in range: hard cut, backed off to a rune boundary so a
	// multi-byte character is never torn in half.
	return runeStart(text, limit)
}

// runeStart walks i back to the start of the UTF-8 sequence it falls inside,
// so slicing text at the result never yields invalid UTF-8.
func runeStart(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// Package textnorm repairs the text artifacts that PDF extraction leaves
// behind: line breaks in the middle of sentences, words hyphenated across
// lines, stray spaces before punctuation. Normalization is deterministic and
// total; the worst input comes back as an empty string.
package textnorm

import (
	"regexp"
	"strings"
)

// ParagraphSeparator is the canonical separator between paragraphs after
// normalization. The chunker splits on it.
const ParagraphSeparator = "\n\n"

var (
	splitHyphen    = regexp.MustCompile(`(\w)-\n(\w)`)
	singleBreak    = regexp.MustCompile(`([^\n])\n([^\n])`)
	multiSpace     = regexp.MustCompile(` {2,}`)
	spaceBeforePun = regexp.MustCompile(` ([.,!?;:])`)
	manyBreaks     = regexp.MustCompile(`\n{3,}`)
)

// Normalize cleans raw extracted page text. The rules run in a fixed order;
// later rules depend on the earlier ones having already fired:
//
//  1. "main-\ntenance" style hyphenation is joined back into one word
//  2. a lone line break becomes a space (repairs wrapped sentences,
//     keeps blank-line paragraph breaks)
//  3. runs of spaces collapse to one
//  4. a space before . , ! ? ; : is dropped
//  5. three or more line breaks collapse to the paragraph separator
//  6. paragraphs are trimmed, empties dropped, and rejoined
//
// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	text := raw

	// Step 1. Only a hyphen directly against a line break is extraction
	// damage; "short- and long-term" or "10- 20" on one line is the
	// author's own text and must survive. That scoping is why this runs
	// before the break collapse erases the distinction.
	text = splitHyphen.ReplaceAllString(text, "$1$2")

	// Step 2. Go's regexp has no lookarounds, so a lone break is matched
	// together with its non-newline neighbors. Adjacent matches can share a
	// boundary character, which a single pass misses; run to fixpoint.
	for {
		replaced := singleBreak.ReplaceAllString(text, "$1 $2")
		if replaced == text {
			break
		}
		text = replaced
	}

	// Step 3
	text = multiSpace.ReplaceAllString(text, " ")

	// Step 4
	text = spaceBeforePun.ReplaceAllString(text, "$1")

	// Step 5
	text = manyBreaks.ReplaceAllString(text, ParagraphSeparator)

	// Step 6
	paragraphs := strings.Split(text, ParagraphSeparator)
	kept := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kept = append(kept, p)
	}

	return strings.Join(kept, ParagraphSeparator)
}

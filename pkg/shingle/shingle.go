// Package shingle normalizes text documents and splits them into word
// shingles, the input alphabet for MinHash signatures.
//
// The normalization pipeline is deliberately conservative about what it
// strips. An earlier, more aggressive version of this normalizer removed
// hyphens along with other punctuation, which collapsed YAML frontmatter
// keys and dashed markdown slugs into neighbouring words and produced empty
// shingle sets for code-heavy documents — a false-negative regression that
// silently made near-duplicate frontmatter look unrelated. Hyphens are kept
// on purpose.
package shingle

import (
	"strings"
	"unicode"
)

// DefaultSize is the default shingle width in words.
const DefaultSize = 3

// Set is a deduplicated collection of shingles.
type Set map[string]struct{}

// Tokenizer normalizes and shingles text documents with a fixed shingle size.
type Tokenizer struct {
	Size int // shingle width in words; 0 means DefaultSize
}

// New creates a Tokenizer with the given shingle size. A size <= 0 uses
// DefaultSize.
func New(size int) *Tokenizer {
	if size <= 0 {
		size = DefaultSize
	}
	return &Tokenizer{Size: size}
}

// Shingles normalizes content and returns its shingle set. It never returns
// an empty set for non-empty input: see the fallback chain below.
func (t *Tokenizer) Shingles(content string) Set {
	if content == "" {
		return nil
	}

	size := t.Size
	if size <= 0 {
		size = DefaultSize
	}

	norm := normalize(content)
	words := strings.Fields(norm)

	if len(words) >= size {
		return wordShingles(words, size)
	}
	if len(words) >= 1 {
		return wordSet(words)
	}
	if len(norm) >= size {
		return charShingles(norm, size)
	}
	// norm may be empty here (content was all punctuation/non-ASCII prose);
	// the singleton still satisfies "never empty for non-empty input".
	return Set{norm: struct{}{}}
}

// normalize lower-cases, collapses whitespace runs, and strips everything
// that is not ASCII alphanumeric, whitespace, or hyphen.
func normalize(s string) string {
	lower := strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(lower))
	lastWasSpace := false
	for _, r := range lower {
		switch {
		case r == '-':
			b.WriteRune(r)
			lastWasSpace = false
		case unicode.IsSpace(r):
			if !lastWasSpace {
				b.WriteByte(' ')
				lastWasSpace = true
			}
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			lastWasSpace = false
		default:
			// drop: punctuation/fences/brackets that carry no structural meaning
		}
	}
	return strings.TrimSpace(b.String())
}

func wordShingles(words []string, size int) Set {
	set := make(Set, len(words))
	for i := 0; i+size <= len(words); i++ {
		set[strings.Join(words[i:i+size], " ")] = struct{}{}
	}
	return set
}

func wordSet(words []string) Set {
	set := make(Set, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func charShingles(s string, size int) Set {
	runes := []rune(s)
	set := make(Set, len(runes))
	for i := 0; i+size <= len(runes); i++ {
		set[string(runes[i:i+size])] = struct{}{}
	}
	return set
}

// Slice returns the shingle set as a sorted-free slice (order unspecified),
// useful for callers that need to range without caring about map iteration
// being non-deterministic elsewhere in the pipeline.
func (s Set) Slice() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chunk splits document text into bounded segments that are sent to
// the model one at a time. Segments end on sentence or paragraph boundaries
// when possible; concatenating them reproduces the input exactly.
package chunk

import (
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yitzshapiro/synthetic-data-generator/pkg/types"
)

// DefaultSize is the default maximum chunk length in runes. Roughly 2048
// tokens of English text.
const DefaultSize = 8192

// Split collects Segments into Chunks tagged with the document ID and a
// zero-based sequence index.
func Split(docID, text string, maxSize int) []types.Chunk {
	var chunks []types.Chunk
	for seg := range Segments(text, maxSize) {
		chunks = append(chunks, types.Chunk{
			DocumentID: docID,
			Index:      len(chunks),
			Text:       seg,
		})
	}
	return chunks
}

// Segments returns a lazy sequence of contiguous, non-empty substrings of
// text, each at most maxSize runes long. Sentences are packed greedily; a
// sentence longer than maxSize is cut at its last whitespace inside the
// window, or at exactly maxSize runes if it has none. A non-positive maxSize
// yields the whole text as one segment.
func Segments(text string, maxSize int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if text == "" {
			return
		}
		if maxSize <= 0 {
			yield(text)
			return
		}

		start := 0   // byte offset where the pending segment begins
		pending := 0 // rune length of text[start:cursor]
		cursor := 0

		for end := range unitEnds(text) {
			n := utf8.RuneCountInString(text[cursor:end])
			if pending+n <= maxSize {
				pending += n
				cursor = end
				continue
			}

			if pending > 0 {
				if !yield(text[start:cursor]) {
					return
				}
				start, pending = cursor, 0
			}

			// The unit alone fits.
			if n <= maxSize {
				pending, cursor = n, end
				continue
			}

			// Oversized unit: emit full windows, keep the tail pending so
			// following sentences can pack onto it.
			for utf8.RuneCountInString(text[start:end]) > maxSize {
				cut := cutPoint(text[start:end], maxSize)
				if !yield(text[start : start+cut]) {
					return
				}
				start += cut
			}
			pending = utf8.RuneCountInString(text[start:end])
			cursor = end
		}

		if start < len(text) {
			yield(text[start:])
		}
	}
}

// cutPoint returns a byte offset into s at which to cut off the first
// window of at most maxSize runes. It prefers the position just after the
// last whitespace run inside the window.
func cutPoint(s string, maxSize int) int {
	limit := byteOffset(s, maxSize)
	lastSpace := -1
	for i, r := range s[:limit] {
		if unicode.IsSpace(r) {
			lastSpace = i + utf8.RuneLen(r)
		}
	}
	if lastSpace > 0 {
		return lastSpace
	}
	return limit
}

// byteOffset returns the byte index of the rune at position n in s, or
// len(s) if s has fewer runes.
func byteOffset(s string, n int) int {
	count := 0
	for i := range s {
		if count == n {
			return i
		}
		count++
	}
	return len(s)
}

// unitEnds yields the byte offsets at which sentences and paragraphs end.
// Trailing whitespace belongs to the unit it follows. The final offset is
// always len(text).
func unitEnds(text string) iter.Seq[int] {
	return func(yield func(int) bool) {
		i, last := 0, 0
		emit := func(end int) bool {
			last = end
			return yield(end)
		}
		for i < len(text) {
			r, size := utf8.DecodeRuneInString(text[i:])
			next := i + size

			switch {
			case isTerminal(r):
				j := skipClosers(text, next)
				if j == len(text) {
					i = j
					continue
				}
				if r2, _ := utf8.DecodeRuneInString(text[j:]); unicode.IsSpace(r2) {
					k := skipSpace(text, j)
					if !emit(k) {
						return
					}
					i = k
					continue
				}
				i = j
				continue

			case r == '\n':
				k := skipSpace(text, i)
				if strings.Count(text[i:k], "\n") >= 2 {
					if !emit(k) {
						return
					}
					i = k
					continue
				}
			}
			i = next
		}
		if last < len(text) {
			yield(len(text))
		}
	}
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '…', '。', '！', '？':
		return true
	}
	return false
}

func skipClosers(s string, i int) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch r {
		case '"', '\'', ')', ']', '}', '”', '’', '»':
			i += size
		default:
			return i
		}
	}
	return i
}

func skipSpace(s string, i int) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !unicode.IsSpace(r) {
			return i
		}
		i += size
	}
	return i
}

package document

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Chunker splits text into overlapping fixed-size chunks. Size and
// overlap are configuration; consecutive chunks share overlap bytes.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 2
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// ChunkText returns ceil((len-overlap)/(size-overlap)) chunks for text
// longer than one chunk, one chunk otherwise. Chunk boundaries back
// off to rune starts so a multi-byte character is never split.
func (c *Chunker) ChunkText(text string) []string {
	text = cleanText(strings.TrimSpace(text))
	if len(text) == 0 {
		return nil
	}
	if len(text) <= c.chunkSize {
		return []string{text}
	}

	step := c.chunkSize - c.chunkOverlap
	var chunks []string
	for start := 0; ; {
		end := start + c.chunkSize
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		if adjusted := runeStart(text, end); adjusted > start {
			end = adjusted
		}
		chunks = append(chunks, text[start:end])

		next := runeStart(text, start+step)
		if next <= start {
			next = start + step
		}
		start = next
	}
	return chunks
}

// runeStart backs a byte offset off to the start of the rune it falls
// into, so chunk boundaries never split a multi-byte character.
func runeStart(s string, i int) int {
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// cleanText collapses whitespace runs into single spaces.
func cleanText(text string) string {
	var result strings.Builder
	prevSpace := false

	for _, r := range text {
		if unicode.IsSpace(r) {
			if !prevSpace {
				result.WriteRune(' ')
				prevSpace = true
			}
		} else {
			result.WriteRune(r)
			prevSpace = false
		}
	}

	return result.String()
}

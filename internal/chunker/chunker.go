// Package chunker splits extracted document text into overlapping,
// size-bounded retrievable units ready for embedding.
package chunker

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/FWU-DE/telli-dialog-sub001/internal/core/domain"
	"github.com/FWU-DE/telli-dialog-sub001/internal/logger"
)

// DefaultLowerBoundWordCount is the minimum number of words a chunk
// accumulates before it closes.
const DefaultLowerBoundWordCount = 200

// DefaultSentenceOverlap is the default distance, in sentences, of the
// overlap sentence duplicated into the embedded text.
const DefaultSentenceOverlap = 1

// maxSentenceWords caps the length of a single sentence unit. Longer
// sentences are split into fixed-size word windows so neither chunks nor
// overlaps can grow without bound on degenerate input.
const maxSentenceWords = 100

// sentencePattern matches runs of text up to and including a sentence
// terminator. Text after the last terminator is handled separately.
var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)

// Chunker splits document text into sentence-based chunks with overlap.
type Chunker struct {
	sentenceOverlap     int
	lowerBoundWordCount int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithSentenceOverlap sets how many sentences back/forward the overlap
// sentence is taken from.
func WithSentenceOverlap(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.sentenceOverlap = n
		}
	}
}

// WithLowerBoundWordCount sets the word count a chunk targets before closing.
func WithLowerBoundWordCount(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.lowerBoundWordCount = n
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		sentenceOverlap:     DefaultSentenceOverlap,
		lowerBoundWordCount: DefaultLowerBoundWordCount,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chunk splits the given text elements into ordered chunks for fileID.
// OrderIndex runs 0..n-1 across all elements; the page number of each
// element is carried onto its chunks. Empty input produces no chunks.
func (c *Chunker) Chunk(fileID string, pages []domain.PageText) []domain.Chunk {
	var chunks []domain.Chunk
	orderIndex := 0

	for _, page := range pages {
		pageChunks := c.chunkElement(fileID, page, &orderIndex)
		chunks = append(chunks, pageChunks...)
	}

	return chunks
}

// chunkElement chunks a single text element, continuing orderIndex.
func (c *Chunker) chunkElement(fileID string, page domain.PageText, orderIndex *int) []domain.Chunk {
	sentences, degraded := c.splitSentences(page.Text)
	if len(sentences) == 0 {
		return nil
	}
	if degraded {
		logger.Warn("Sentence detection found no boundaries, chunking by raw word count (file %s)", fileID)
	}

	var chunks []domain.Chunk

	start := 0
	for start < len(sentences) {
		end := start
		words := 0
		for end < len(sentences) && words < c.lowerBoundWordCount {
			words += wordCount(sentences[end])
			end++
		}

		chunk := domain.Chunk{
			ID:         uuid.New().String(),
			FileID:     fileID,
			OrderIndex: *orderIndex,
			Content:    strings.Join(sentences[start:end], " "),
			Page:       page.Page,
			Degraded:   degraded,
		}

		if start > 0 {
			lead := start - c.sentenceOverlap
			if lead < 0 {
				lead = 0
			}
			chunk.LeadingOverlap = sentences[lead]
		}
		if end < len(sentences) {
			trail := end - 1 + c.sentenceOverlap
			if trail > len(sentences)-1 {
				trail = len(sentences) - 1
			}
			if trail >= end {
				chunk.TrailingOverlap = sentences[trail]
			}
		}

		chunks = append(chunks, chunk)
		*orderIndex++
		start = end
	}

	return chunks
}

// splitSentences detects sentence boundaries and enforces the per-unit
// word cap. When detection yields nothing for non-empty input, the whole
// input degrades to one pseudo-sentence (still subject to the cap) and
// the second return value reports the quality loss.
func (c *Chunker) splitSentences(text string) ([]string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, false
	}

	matches := sentencePattern.FindAllStringIndex(trimmed, -1)

	var sentences []string
	last := 0
	for _, m := range matches {
		// Slice from the end of the previous match, not the start of this
		// one: unmatched text in between (leading terminators, stray
		// punctuation) stays attached to the sentence that follows it.
		if s := strings.TrimSpace(trimmed[last:m[1]]); s != "" {
			sentences = append(sentences, s)
		}
		last = m[1]
	}

	// Text after the last terminator still belongs to the document.
	if rest := strings.TrimSpace(trimmed[last:]); rest != "" && len(sentences) > 0 {
		sentences = append(sentences, rest)
	}

	if len(sentences) == 0 {
		return capSentence(trimmed), true
	}

	var capped []string
	for _, s := range sentences {
		capped = append(capped, capSentence(s)...)
	}
	return capped, false
}

// capSentence splits a sentence longer than maxSentenceWords into
// fixed-size word windows.
func capSentence(sentence string) []string {
	words := strings.Fields(sentence)
	if len(words) <= maxSentenceWords {
		return []string{sentence}
	}

	var parts []string
	for i := 0; i < len(words); i += maxSentenceWords {
		end := i + maxSentenceWords
		if end > len(words) {
			end = len(words)
		}
		parts = append(parts, strings.Join(words[i:end], " "))
	}
	return parts
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

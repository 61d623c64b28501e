package domain

import "time"

// PageText is one element of extracted document text.
// Plain-text sources produce a single element with no page number;
// paginated sources (PDF and friends) produce one element per page.
// Extraction itself happens upstream and is out of scope here.
type PageText struct {
	// Page is the 1-based source page number, nil for unpaginated text.
	Page *int

	// Text is the extracted text of the element.
	Text string
}

// Chunk represents a retrievable unit of a source file.
// Chunks are created in batches at ingestion time and are immutable
// thereafter; they are deleted together with their owning file.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// FileID links to the owning file.
	FileID string

	// OrderIndex is the 0-based ordinal position within the file.
	// Values are unique and contiguous per file.
	OrderIndex int

	// Content is the chunk's own text span, without overlap sentences.
	Content string

	// LeadingOverlap holds the sentence(s) immediately before the chunk's
	// span. Empty at the start of a file.
	LeadingOverlap string

	// TrailingOverlap holds the sentence(s) immediately after the chunk's
	// span. Empty at the end of a file.
	TrailingOverlap string

	// Page is the source page number, nil for unpaginated sources.
	Page *int

	// Degraded marks chunks produced by the whole-text fallback when
	// sentence detection found no boundaries. Such chunks lose
	// sentence-boundary awareness and are split by raw word count.
	Degraded bool

	// Embedding is the vector representation, present once ingested.
	// Dimensionality is constant across the corpus.
	Embedding []float32

	// CreatedAt is when the chunk was stored.
	CreatedAt time.Time
}

// EmbeddingText returns the text that is embedded for this chunk: the
// overlap sentences concatenated around the chunk's own span. The stored
// content stays overlap-free; overlaps only widen the embedded context.
func (c Chunk) EmbeddingText() string {
	text := c.Content
	if c.LeadingOverlap != "" {
		text = c.LeadingOverlap + " " + text
	}
	if c.TrailingOverlap != "" {
		text = text + " " + c.TrailingOverlap
	}
	return text
}

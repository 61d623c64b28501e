// Package driving provides interfaces for application entry points (primary/inbound ports).
package driving

import (
	"context"

	"github.com/FWU-DE/telli-dialog-sub001/internal/core/domain"
)

// RetrievalService turns a conversation plus a set of attached files into
// grouped, reading-ordered chunks ready for prompt assembly.
type RetrievalService interface {
	// Retrieve derives a standalone query and keywords from the chat
	// history, runs the hybrid search against the attached files, and
	// groups the results per file in document order.
	//
	// A nil result with a nil error means no retrieval was performed
	// because no files are attached; no external service is called in
	// that case.
	Retrieve(ctx context.Context, messages []domain.Message, fileIDs []string) (*domain.RetrievalResult, error)
}

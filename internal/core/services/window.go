package services

import (
	"strings"

	"github.com/FWU-DE/telli-dialog-sub001/internal/core/domain"
	"github.com/FWU-DE/telli-dialog-sub001/internal/logger"
)

// WindowConfig bounds the context window sent to the model.
type WindowConfig struct {
	// LimitFirst is the number of leading turn-pairs always kept.
	LimitFirst int

	// LimitRecent is the number of trailing turn-pairs always kept.
	LimitRecent int

	// CharacterLimit is the total character budget.
	CharacterLimit int
}

// WindowMessages selects which messages of a conversation fit the
// character budget while keeping the structurally important turns: the
// leading and trailing pairs are mandatory, the middle is filled
// greedily newest-first until the budget would overflow.
//
// The returned slice is always a subsequence of the consolidated input
// in original order. Applying the function to its own output with the
// same config is a no-op.
func WindowMessages(messages []domain.Message, cfg WindowConfig) []domain.Message {
	consolidated := consolidateRoles(messages)

	maxFirst := 2 * cfg.LimitFirst
	maxRecent := 2 * cfg.LimitRecent

	if len(consolidated) <= maxFirst+maxRecent {
		return consolidated
	}

	total := 0
	for _, m := range consolidated {
		total += len(m.Content)
	}
	if total <= cfg.CharacterLimit {
		return consolidated
	}

	logger.Debug("Context window: %d consolidated messages, %d chars over budget %d",
		len(consolidated), total, cfg.CharacterLimit)

	first := consolidated[:maxFirst]
	recent := consolidated[len(consolidated)-maxRecent:]
	middle := consolidated[maxFirst : len(consolidated)-maxRecent]

	used := 0
	for _, m := range first {
		used += len(m.Content)
	}
	for _, m := range recent {
		used += len(m.Content)
	}

	// Walk the middle newest-first; the first candidate that would blow
	// the budget stops the fill, even if an older one would still fit.
	accepted := len(middle)
	for i := len(middle) - 1; i >= 0; i-- {
		if used+len(middle[i].Content) > cfg.CharacterLimit {
			break
		}
		used += len(middle[i].Content)
		accepted = i
	}

	result := make([]domain.Message, 0, maxFirst+len(middle)-accepted+maxRecent)
	result = append(result, first...)
	result = append(result, middle[accepted:]...)
	result = append(result, recent...)

	logger.Debug("Context window: kept %d of %d messages (%d chars)", len(result), len(consolidated), used)
	return result
}

// consolidateRoles merges runs of consecutive same-role messages into
// one message each, joining content with a blank line. This keeps a
// logical turn from being fragmented across stored entries.
func consolidateRoles(messages []domain.Message) []domain.Message {
	if len(messages) == 0 {
		return []domain.Message{}
	}

	consolidated := make([]domain.Message, 0, len(messages))
	current := messages[0]
	parts := []string{messages[0].Content}

	for _, m := range messages[1:] {
		if m.Role == current.Role {
			parts = append(parts, m.Content)
			continue
		}
		current.Content = strings.Join(parts, "\n\n")
		consolidated = append(consolidated, current)
		current = m
		parts = []string{m.Content}
	}
	current.Content = strings.Join(parts, "\n\n")
	consolidated = append(consolidated, current)

	return consolidated
}

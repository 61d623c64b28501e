package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FWU-DE/telli-dialog-sub001/internal/core/domain"
)

// alternating builds an alternating user/assistant conversation from the
// given contents, starting with the user.
func alternating(contents ...string) []domain.Message {
	messages := make([]domain.Message, len(contents))
	for i, content := range contents {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		messages[i] = domain.Message{
			ID:      fmt.Sprintf("msg-%d", i),
			Role:    role,
			Content: content,
		}
	}
	return messages
}

func messageIDs(messages []domain.Message) []string {
	ids := make([]string, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
	}
	return ids
}

func TestWindowDropsOversizedMiddle(t *testing.T) {
	// Nine messages where the middle three blow the budget: only the
	// mandatory first pair and recent two pairs survive.
	long := strings.Repeat("x", 300)
	messages := alternating("hallo", "hi", long, long, long, "frage", "antwort", "nachfrage", "schluss")

	result := WindowMessages(messages, WindowConfig{
		LimitFirst:     1,
		LimitRecent:    2,
		CharacterLimit: 300,
	})

	require.Len(t, result, 6)
	assert.Equal(t,
		[]string{"msg-0", "msg-1", "msg-5", "msg-6", "msg-7", "msg-8"},
		messageIDs(result))
}

func TestWindowShortCircuitOnCount(t *testing.T) {
	messages := alternating("eins", "zwei", "drei", "vier")

	result := WindowMessages(messages, WindowConfig{
		LimitFirst:     1,
		LimitRecent:    2,
		CharacterLimit: 300,
	})

	require.Len(t, result, 4)
	assert.Equal(t, messages, result)
}

func TestWindowShortCircuitOnBudget(t *testing.T) {
	content := strings.Repeat("a", 1000)
	messages := alternating(content, content, content, content, content, content, content, content)

	result := WindowMessages(messages, WindowConfig{
		LimitFirst:     1,
		LimitRecent:    2,
		CharacterLimit: 10000,
	})

	assert.Equal(t, messages, result)
}

func TestWindowGreedyFillAcceptsNewestMiddle(t *testing.T) {
	// The newest middle message fits, the one before it does not. The
	// fill stops at the first overflow even though still older messages
	// might have fit.
	messages := alternating(
		"aa", "bb", // first pair
		strings.Repeat("x", 500), // middle, oldest
		strings.Repeat("y", 100), // middle, newest
		"cc", "dd", "ee", "ff", // recent two pairs
	)

	result := WindowMessages(messages, WindowConfig{
		LimitFirst:     1,
		LimitRecent:    2,
		CharacterLimit: 200,
	})

	assert.Equal(t,
		[]string{"msg-0", "msg-1", "msg-3", "msg-4", "msg-5", "msg-6", "msg-7"},
		messageIDs(result))
}

func TestWindowMandatorySetAlwaysPresent(t *testing.T) {
	long := strings.Repeat("z", 400)
	messages := alternating(long, long, long, long, long, long, long, long, long, long)

	result := WindowMessages(messages, WindowConfig{
		LimitFirst:     1,
		LimitRecent:    2,
		CharacterLimit: 100,
	})

	// Even with a budget the mandatory set alone exceeds, the first
	// 2*limitFirst and last 2*limitRecent messages are kept in order.
	assert.Equal(t,
		[]string{"msg-0", "msg-1", "msg-6", "msg-7", "msg-8", "msg-9"},
		messageIDs(result))
}

func TestWindowConsolidatesSameRoleRuns(t *testing.T) {
	messages := []domain.Message{
		{ID: "1", Role: domain.RoleUser, Content: "erste"},
		{ID: "2", Role: domain.RoleUser, Content: "zweite"},
		{ID: "3", Role: domain.RoleAssistant, Content: "antwort"},
		{ID: "4", Role: domain.RoleUser, Content: "dritte"},
	}

	result := WindowMessages(messages, WindowConfig{
		LimitFirst:     1,
		LimitRecent:    2,
		CharacterLimit: 1000,
	})

	require.Len(t, result, 3)
	assert.Equal(t, "erste\n\nzweite", result[0].Content)
	assert.Equal(t, domain.RoleUser, result[0].Role)
	assert.Equal(t, "antwort", result[1].Content)
	assert.Equal(t, "dritte", result[2].Content)
}

func TestWindowIdempotent(t *testing.T) {
	long := strings.Repeat("x", 300)
	messages := alternating("hallo", "hi", long, long, long, long, "frage", "antwort", "nachfrage", "schluss")
	cfg := WindowConfig{LimitFirst: 1, LimitRecent: 2, CharacterLimit: 300}

	once := WindowMessages(messages, cfg)
	twice := WindowMessages(once, cfg)

	assert.Equal(t, once, twice)
}

func TestWindowEmptyInput(t *testing.T) {
	result := WindowMessages(nil, WindowConfig{LimitFirst: 1, LimitRecent: 2, CharacterLimit: 100})
	assert.Empty(t, result)
}

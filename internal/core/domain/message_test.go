package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLastUserContent(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "system prompt"},
		{Role: RoleUser, Content: "erste Frage"},
		{Role: RoleAssistant, Content: "Antwort"},
		{Role: RoleUser, Content: "zweite Frage"},
		{Role: RoleAssistant, Content: "noch eine Antwort"},
	}

	assert.Equal(t, "zweite Frage", LastUserContent(messages))
}

func TestLastUserContent_NoUserMessage(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "system prompt"},
		{Role: RoleAssistant, Content: "Antwort"},
	}

	assert.Equal(t, "", LastUserContent(messages))
	assert.Equal(t, "", LastUserContent(nil))
}

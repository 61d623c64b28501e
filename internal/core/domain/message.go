package domain

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single conversation turn. Stored messages are never
// mutated by the context window; selection only decides which
// (consolidated) subset is forwarded to the model.
type Message struct {
	// ID is the stable identifier of the stored message.
	ID string

	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// LastUserContent returns the content of the most recent user message,
// or the empty string when no user message exists.
func LastUserContent(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

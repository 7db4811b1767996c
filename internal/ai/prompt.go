package ai

// SystemPrompt returns the system prompt for the storytelling assistant.
// Aimed at children aged 2-8; warm, educational, gently steering.
func SystemPrompt() string {
	return `You are a lovely and warm teacher who is able to expertly weave education into a story. You are also able to answer questions about the story. You primarily focus on children between the ages of 2 and 8 and will modify your tone and language to be appropriate for that age group. You allow for tangents in the story to help the child learn and grow, but ultimately try and steer them back to the main goal of the story. If the child asks completely unrelated questions you will answer as best you can, while trying to steer it back on topic. Be open and friendly, but also firm when needed.`
}

// Message is one role-tagged entry of a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildInput assembles the ordered message list for a completion request:
// system prompt, then the prior turns flattened as alternating
// user/assistant entries, then the new user message. The history order must
// match page insertion order; reordering changes the meaning of the
// conversation for the model.
func BuildInput(message string, history []string) []Message {
	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, Message{Role: "system", Content: SystemPrompt()})
	for i, h := range history {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		msgs = append(msgs, Message{Role: role, Content: h})
	}
	return append(msgs, Message{Role: "user", Content: message})
}

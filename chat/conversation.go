package chat

import "context"

// GenerationConfig carries the named generation parameters supplied with
// every completion request. Associated 1:1 with a conversation.
type GenerationConfig struct {
	Temperature float32

	// MaxTokens caps the completion length; 0 leaves it to the provider.
	MaxTokens int

	// SystemPrompt, when set, is prepended to the serialized history by
	// the backend unless the history already starts with a system message.
	SystemPrompt string
}

// CompletionBackend produces exactly one assistant message from the entire
// ordered history.
type CompletionBackend interface {
	Generate(ctx context.Context, history []Message, cfg GenerationConfig) (Message, error)
}

// Conversation is an append-only ordered message history owned by a single
// session. Messages are never removed or mutated in place; a session ends
// only because the caller stops using it.
type Conversation struct {
	backend  CompletionBackend
	cfg      GenerationConfig
	messages []Message
}

// NewConversation binds a completion backend and generation parameters to
// a fresh, empty history.
func NewConversation(backend CompletionBackend, cfg GenerationConfig) *Conversation {
	return &Conversation{backend: backend, cfg: cfg}
}

// AddUserMessage appends a user turn and returns it. Pure append.
func (c *Conversation) AddUserMessage(content string, metadata map[string]any) Message {
	msg := NewMessage(RoleUser, content, metadata)
	c.messages = append(c.messages, msg)
	return msg
}

// AddSystemMessage appends a system preamble message.
func (c *Conversation) AddSystemMessage(content string) Message {
	msg := NewMessage(RoleSystem, content, nil)
	c.messages = append(c.messages, msg)
	return msg
}

// GenerateReply sends the full current history to the backend, appends the
// returned assistant message as the new tail, and returns it. The caller
// must have added the user message first. On failure nothing is rolled
// back: the user message stays in history.
func (c *Conversation) GenerateReply(ctx context.Context) (Message, error) {
	reply, err := c.backend.Generate(ctx, c.History(), c.cfg)
	if err != nil {
		return Message{}, err
	}
	c.messages = append(c.messages, reply)
	return reply, nil
}

// History returns an ordered snapshot of all messages so far. Mutating the
// returned slice does not affect the conversation.
func (c *Conversation) History() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

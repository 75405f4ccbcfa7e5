// Package chat holds the conversation state machine and the completion
// backend that turns transcribed speech into assistant replies.
package chat

import (
	"errors"
	"time"
)

// ErrCompletionFailed indicates the completion backend's underlying call
// did not succeed. Surfaced as a single failure with no automatic retry;
// the user message that triggered the call stays in history.
var ErrCompletionFailed = errors.New("completion request failed")

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn entry in a conversation. Immutable after
// construction; metadata is filled in once by whichever component creates
// the message (transcript detail on user turns, token usage on assistant
// turns).
type Message struct {
	Role      string
	Content   string
	Timestamp time.Time
	Metadata  map[string]any
}

// NewMessage stamps a message with the current UTC time.
func NewMessage(role, content string, metadata map[string]any) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
}

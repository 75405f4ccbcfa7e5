package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	reply   string
	err     error
	history []Message
	cfg     GenerationConfig
	calls   int
}

func (f *fakeBackend) Generate(ctx context.Context, history []Message, cfg GenerationConfig) (Message, error) {
	f.calls++
	f.history = history
	f.cfg = cfg
	if f.err != nil {
		return Message{}, f.err
	}
	return NewMessage(RoleAssistant, f.reply, nil), nil
}

func TestConversationExchange(t *testing.T) {
	backend := &fakeBackend{reply: "hi there"}
	conv := NewConversation(backend, GenerationConfig{Temperature: 0.7})

	before := len(conv.History())

	user := conv.AddUserMessage("hello", nil)
	require.Equal(t, RoleUser, user.Role)

	reply, err := conv.GenerateReply(context.Background())
	require.NoError(t, err)
	require.Equal(t, RoleAssistant, reply.Role)
	require.Equal(t, "hi there", reply.Content)

	history := conv.History()
	require.Len(t, history, before+2)
	require.Equal(t, RoleUser, history[len(history)-2].Role)
	require.Equal(t, reply, history[len(history)-1])
}

func TestConversationBackendSeesFullHistory(t *testing.T) {
	backend := &fakeBackend{reply: "ok"}
	conv := NewConversation(backend, GenerationConfig{Temperature: 0.2, MaxTokens: 64})

	conv.AddSystemMessage("be brief")
	conv.AddUserMessage("first", nil)

	_, err := conv.GenerateReply(context.Background())
	require.NoError(t, err)

	// The just-added user message is part of the history the backend saw.
	require.Len(t, backend.history, 2)
	require.Equal(t, RoleSystem, backend.history[0].Role)
	require.Equal(t, "first", backend.history[1].Content)
	require.Equal(t, float32(0.2), backend.cfg.Temperature)
	require.Equal(t, 64, backend.cfg.MaxTokens)
}

func TestConversationFailureKeepsUserMessage(t *testing.T) {
	backend := &fakeBackend{err: ErrCompletionFailed}
	conv := NewConversation(backend, GenerationConfig{})

	conv.AddUserMessage("doomed", nil)

	_, err := conv.GenerateReply(context.Background())
	require.ErrorIs(t, err, ErrCompletionFailed)

	history := conv.History()
	require.Len(t, history, 1)
	require.Equal(t, RoleUser, history[0].Role)
	require.Equal(t, "doomed", history[0].Content)
}

func TestConversationHistorySnapshot(t *testing.T) {
	conv := NewConversation(&fakeBackend{}, GenerationConfig{})
	conv.AddUserMessage("original", nil)

	snapshot := conv.History()
	snapshot[0].Content = "tampered"
	_ = append(snapshot, NewMessage(RoleUser, "extra", nil))

	history := conv.History()
	require.Len(t, history, 1)
	require.Equal(t, "original", history[0].Content)
}

func TestConversationMetadataCarried(t *testing.T) {
	conv := NewConversation(&fakeBackend{}, GenerationConfig{})

	meta := map[string]any{"transcript": map[string]any{"language": "en"}}
	user := conv.AddUserMessage("hello", meta)
	require.Equal(t, meta, user.Metadata)
	require.False(t, user.Timestamp.IsZero())
}

func TestConversationFailurePropagatesError(t *testing.T) {
	cause := errors.New("connection refused")
	backend := &fakeBackend{err: cause}
	conv := NewConversation(backend, GenerationConfig{})
	conv.AddUserMessage("hello", nil)

	_, err := conv.GenerateReply(context.Background())
	require.ErrorIs(t, err, cause)
	require.Equal(t, 1, backend.calls)
}

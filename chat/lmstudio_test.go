package chat

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

type fakeCompletionAPI struct {
	request  *openai.ChatCompletionRequest
	response openai.ChatCompletionResponse
	err      error
}

func (f *fakeCompletionAPI) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.request = &request
	return f.response, f.err
}

func TestBuildRequestPrependsSystemPrompt(t *testing.T) {
	history := []Message{NewMessage(RoleUser, "hello", nil)}

	req := buildRequest("m", history, GenerationConfig{SystemPrompt: "be kind"})

	require.Len(t, req.Messages, 2)
	require.Equal(t, RoleSystem, req.Messages[0].Role)
	require.Equal(t, "be kind", req.Messages[0].Content)
	require.Equal(t, "hello", req.Messages[1].Content)
}

func TestBuildRequestSkipsDuplicateSystemPrompt(t *testing.T) {
	history := []Message{
		NewMessage(RoleSystem, "be kind", nil),
		NewMessage(RoleUser, "hello", nil),
	}

	req := buildRequest("m", history, GenerationConfig{SystemPrompt: "be kind"})

	require.Len(t, req.Messages, 2)
	require.Equal(t, RoleSystem, req.Messages[0].Role)
}

func TestBuildRequestParameters(t *testing.T) {
	req := buildRequest("local-model", nil, GenerationConfig{Temperature: 0.3, MaxTokens: 128})

	require.Equal(t, "local-model", req.Model)
	require.Equal(t, float32(0.3), req.Temperature)
	require.Equal(t, 128, req.MaxTokens)
}

func TestLMStudioGenerate(t *testing.T) {
	api := &fakeCompletionAPI{
		response: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "sure"}},
			},
			Usage: openai.Usage{PromptTokens: 12, CompletionTokens: 3, TotalTokens: 15},
		},
	}
	backend := &LMStudio{client: api, model: "local-model"}

	history := []Message{NewMessage(RoleUser, "hello", nil)}
	reply, err := backend.Generate(context.Background(), history, GenerationConfig{Temperature: 0.7})
	require.NoError(t, err)

	require.Equal(t, RoleAssistant, reply.Role)
	require.Equal(t, "sure", reply.Content)

	usage, ok := reply.Metadata["usage"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, int64(12), usage["prompt_tokens"])
	require.Equal(t, int64(15), usage["total_tokens"])
}

func TestLMStudioGenerateDefaultsRole(t *testing.T) {
	api := &fakeCompletionAPI{
		response: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "no role"}},
			},
		},
	}
	backend := &LMStudio{client: api, model: "m"}

	reply, err := backend.Generate(context.Background(), nil, GenerationConfig{})
	require.NoError(t, err)
	require.Equal(t, RoleAssistant, reply.Role)
	require.Nil(t, reply.Metadata)
}

func TestLMStudioGenerateTransportError(t *testing.T) {
	api := &fakeCompletionAPI{err: errors.New("connection refused")}
	backend := &LMStudio{client: api, model: "m"}

	_, err := backend.Generate(context.Background(), nil, GenerationConfig{})
	require.ErrorIs(t, err, ErrCompletionFailed)
}

func TestLMStudioGenerateEmptyChoices(t *testing.T) {
	api := &fakeCompletionAPI{}
	backend := &LMStudio{client: api, model: "m"}

	_, err := backend.Generate(context.Background(), nil, GenerationConfig{})
	require.ErrorIs(t, err, ErrCompletionFailed)
}

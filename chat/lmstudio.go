package chat

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// completionAPI is the slice of the OpenAI client the backend needs.
type completionAPI interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// LMStudio is a CompletionBackend speaking the OpenAI chat-completion
// protocol against an LM Studio (or any compatible) server. One request
// per call, no retries.
type LMStudio struct {
	client completionAPI
	model  string
}

// NewLMStudio points the OpenAI client at the local server. LM Studio
// ignores the API key but the client requires one.
func NewLMStudio(baseURL, model string) *LMStudio {
	cfg := openai.DefaultConfig("lm-studio")
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &LMStudio{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Generate serializes the history to plain role/content messages,
// prepending the configured system prompt when the history does not
// already start with one, and returns the single assistant reply. Any
// transport or non-2xx failure surfaces as ErrCompletionFailed.
func (l *LMStudio) Generate(ctx context.Context, history []Message, cfg GenerationConfig) (Message, error) {
	req := buildRequest(l.model, history, cfg)

	slog.Debug("Requesting completion",
		"model", l.model,
		"messages", len(req.Messages),
		"temperature", cfg.Temperature)

	resp, err := l.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	if len(resp.Choices) == 0 {
		return Message{}, fmt.Errorf("%w: response contained no choices", ErrCompletionFailed)
	}

	choice := resp.Choices[0].Message
	role := choice.Role
	if role == "" {
		role = RoleAssistant
	}

	reply := NewMessage(role, choice.Content, nil)
	if resp.Usage.TotalTokens > 0 {
		reply.Metadata = map[string]any{
			"usage": map[string]any{
				"prompt_tokens":     int64(resp.Usage.PromptTokens),
				"completion_tokens": int64(resp.Usage.CompletionTokens),
				"total_tokens":      int64(resp.Usage.TotalTokens),
			},
		}
	}
	return reply, nil
}

func buildRequest(model string, history []Message, cfg GenerationConfig) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)

	if cfg.SystemPrompt != "" && (len(history) == 0 || history[0].Role != RoleSystem) {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    RoleSystem,
			Content: cfg.SystemPrompt,
		})
	}
	for _, msg := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	return openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
}

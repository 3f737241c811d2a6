package chat

import (
	"context"
	"time"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
	"github.com/varsilias/bubblechat/pkg/types"
)

// OpenAIEngine calls any OpenAI-compatible chat completions API (OpenRouter by default).
type OpenAIEngine struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

type OpenAIOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
}

func NewOpenAIEngine(opts OpenAIOptions) *OpenAIEngine {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return &OpenAIEngine{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
	}
}

func (e *OpenAIEngine) Generate(ctx context.Context, messages []types.Message) (string, time.Duration, error) {
	omsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		omsgs = append(omsgs, openai.ChatCompletionMessage{
			Role:    openAIRole(m.Role),
			Content: m.Content,
		})
	}
	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Messages:    omsgs,
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
	})
	if err != nil {
		return "", 0, errors.Wrap(err, "chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", 0, errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, time.Since(start), nil
}

func openAIRole(r types.Role) string {
	switch r {
	case types.RoleSystem:
		return openai.ChatMessageRoleSystem
	case types.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

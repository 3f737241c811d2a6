package chat

import (
	"context"
	"time"

	"github.com/varsilias/bubblechat/internal/ollama"
	"github.com/varsilias/bubblechat/pkg/types"
)

type OllamaEngine struct {
	c     *ollama.Client
	model string
}

func NewOllamaEngine(c *ollama.Client, model string) *OllamaEngine {
	return &OllamaEngine{
		c:     c,
		model: model,
	}
}

func (e *OllamaEngine) Generate(ctx context.Context, messages []types.Message) (string, time.Duration, error) {
	return e.c.Chat(ctx, e.model, messages)
}

package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/varsilias/bubblechat/internal/persona"
	"github.com/varsilias/bubblechat/pkg/types"
)

type Controller struct {
	log       *slog.Logger
	eng       Engine
	personas  *persona.Catalog
	counter   Counter
	maxTokens int
}

func NewController(log *slog.Logger, eng Engine, personas *persona.Catalog) *Controller {
	return &Controller{log: log, eng: eng, personas: personas}
}

// WithHistoryBudget trims the oldest history so a prompt stays within max tokens.
func (c *Controller) WithHistoryBudget(counter Counter, max int) *Controller {
	c.counter = counter
	c.maxTokens = max
	return c
}

// Chat answers one turn. The returned history is the request history plus the new pair;
// trimming only affects what the model sees.
func (c *Controller) Chat(ctx context.Context, req types.ChatRequest) (types.ChatResponse, time.Duration, error) {
	if strings.TrimSpace(req.Message) == "" {
		return types.ChatResponse{}, 0, errors.New("empty message")
	}
	system := c.personas.SystemPrompt(req.Role, req.Style, req.Length)
	history := fitHistory(c.counter, c.maxTokens, system, req.Message, req.History)
	if dropped := len(req.History) - len(history); dropped > 0 {
		c.log.Info("history trimmed", "dropped", dropped, "kept", len(history))
	}

	messages := buildMessages(system, history, req.Message)
	c.log.Debug("chat", "role", req.Role, "style", req.Style, "length", req.Length, "messages", len(messages))

	text, latency, err := c.eng.Generate(ctx, messages)
	if err != nil {
		c.log.Error("engine call", "err", err)
		return types.ChatResponse{}, 0, err
	}

	out := make(types.History, 0, len(req.History)+1)
	out = append(out, req.History...)
	out = append(out, types.Exchange{Message: req.Message, Reply: text})
	return types.ChatResponse{Reply: &text, History: out}, latency, nil
}

func buildMessages(system string, history types.History, message string) []types.Message {
	msgs := make([]types.Message, 0, 2+2*len(history))
	msgs = append(msgs, types.Message{Role: types.RoleSystem, Content: system})
	for _, e := range history {
		msgs = append(msgs,
			types.Message{Role: types.RoleUser, Content: e.Message},
			types.Message{Role: types.RoleAssistant, Content: e.Reply},
		)
	}
	return append(msgs, types.Message{Role: types.RoleUser, Content: message})
}

package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/varsilias/bubblechat/pkg/types"
)

// Engine turns a message list (system first, user last) into the assistant's reply.
type Engine interface {
	Generate(ctx context.Context, messages []types.Message) (text string, latency time.Duration, err error)
}

// EchoEngine answers without a model, for demos and offline runs.
type EchoEngine struct {
	minLatency time.Duration
}

func NewEchoEngine(minLatency time.Duration) *EchoEngine { return &EchoEngine{minLatency: minLatency} }

func (e *EchoEngine) Generate(ctx context.Context, messages []types.Message) (string, time.Duration, error) {
	start := time.Now()
	if e.minLatency > 0 {
		select {
		case <-time.After(e.minLatency):
		case <-ctx.Done():
			return "", 0, ctx.Err()
		}
	}
	var last string
	if n := len(messages); n > 0 {
		last = messages[n-1].Content
	}
	text := fmt.Sprintf("(demo) you said: %s", last)
	return text, time.Since(start), nil
}

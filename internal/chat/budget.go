package chat

import (
	"github.com/pkg/errors"
	"github.com/tiktoken-go/tokenizer"
	"github.com/varsilias/bubblechat/pkg/types"
)

// Counter measures text in model tokens.
type Counter interface {
	Count(text string) int
}

type tiktokenCounter struct {
	codec tokenizer.Codec
}

// NewTokenCounter counts with the cl100k_base encoding. It is an estimate for non-OpenAI models.
func NewTokenCounter() (Counter, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, errors.Wrap(err, "load tokenizer")
	}
	return &tiktokenCounter{codec: codec}, nil
}

func (c *tiktokenCounter) Count(text string) int {
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		// close enough for budgeting
		return len(text) / 4
	}
	return len(ids)
}

// fitHistory drops the oldest exchanges until system, history and message fit in max tokens.
// max <= 0 disables trimming. The newest message is always kept, even if it alone is over budget.
func fitHistory(c Counter, max int, system, message string, history types.History) types.History {
	if max <= 0 || c == nil {
		return history
	}
	used := c.Count(system) + c.Count(message)
	costs := make([]int, len(history))
	for i, e := range history {
		costs[i] = c.Count(e.Message) + c.Count(e.Reply)
		used += costs[i]
	}
	start := 0
	for used > max && start < len(history) {
		used -= costs[start]
		start++
	}
	return history[start:]
}

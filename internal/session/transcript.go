package session

import "github.com/varsilias/bubblechat/pkg/types"

// Transcript is the ordered record of completed exchanges for one chat session.
// It lives in process memory only and belongs to the client's event loop; it takes no locks.
type Transcript struct {
	exchanges types.History
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append records a confirmed exchange at the end.
func (t *Transcript) Append(e types.Exchange) {
	t.exchanges = append(t.exchanges, e)
}

// Snapshot returns a copy that later appends cannot affect.
func (t *Transcript) Snapshot() types.History {
	out := make(types.History, len(t.exchanges))
	copy(out, t.exchanges)
	return out
}

func (t *Transcript) Len() int { return len(t.exchanges) }

// Title is a short label for the session, taken from its first message.
func (t *Transcript) Title() string {
	if len(t.exchanges) == 0 {
		return ""
	}
	return clip(words(t.exchanges[0].Message), 8)
}

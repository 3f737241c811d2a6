package types

import "encoding/json"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one model-facing chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Bubble is a single rendered chat message.
type Bubble struct {
	Text   string `json:"text"`
	Sender Sender `json:"sender"`
}

// Params are the reply parameters picked in the UI at send time.
type Params struct {
	Role   string `json:"role"`
	Style  string `json:"style"`
	Length string `json:"length"`
}

// Exchange is a completed (message, reply) pair. On the wire it is a two element array.
type Exchange struct {
	Message string
	Reply   string
}

func (e Exchange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{e.Message, e.Reply})
}

func (e *Exchange) UnmarshalJSON(b []byte) error {
	var pair [2]string
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	e.Message, e.Reply = pair[0], pair[1]
	return nil
}

// History is an ordered list of exchanges, oldest first.
type History []Exchange

// UnmarshalJSON skips entries that are not exactly [message, reply].
func (h *History) UnmarshalJSON(b []byte) error {
	var raw [][]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(History, 0, len(raw))
	for _, item := range raw {
		if len(item) != 2 {
			continue
		}
		out = append(out, Exchange{Message: item[0], Reply: item[1]})
	}
	*h = out
	return nil
}

type ChatRequest struct {
	Message string  `json:"message"`
	Role    string  `json:"role"`
	Style   string  `json:"style"`
	Length  string  `json:"length"`
	History History `json:"history"`
}

// ChatResponse is what the chat service answers. Reply is nil when the field was absent.
type ChatResponse struct {
	Reply   *string `json:"reply,omitempty"`
	History History `json:"history,omitempty"`
	Error   string  `json:"error,omitempty"`
}

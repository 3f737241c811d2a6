// Package chatclient keeps a chat session's transcript, renders its bubbles and exchanges
// messages with the remote chat service.
//
// A Client is driven from a single event loop. RenderBubble, SendMessage and Complete must
// all be called from that loop; only Dispatch may run elsewhere, since it touches nothing but
// the Service.
package chatclient

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"github.com/varsilias/bubblechat/internal/session"
	"github.com/varsilias/bubblechat/pkg/types"
)

// ErrorText replaces the reply whenever an exchange fails for any reason.
const ErrorText = "Error: Could not reach server"

// ErrNoReply reports a response that decoded but carried no reply field.
var ErrNoReply = errors.New("response has no reply")

// Log is the visible message log. Append must leave the newest bubble in view.
type Log interface {
	Append(b types.Bubble)
}

// Controls are the input widgets the client reads at send time.
type Controls interface {
	Message() string
	ClearMessage()
	Params() types.Params
}

// Service is the remote chat service.
type Service interface {
	Chat(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error)
}

// Pending is an issued request that has not been dispatched yet.
type Pending struct {
	Seq     uint64
	Request types.ChatRequest
}

// Result is the outcome of dispatching a Pending.
type Result struct {
	Seq     uint64
	Message string
	Reply   string
	Err     error
}

type Client struct {
	log        *slog.Logger
	svc        Service
	view       Log
	controls   Controls
	transcript *session.Transcript

	ordered bool
	issued  uint64
	applied uint64
	held    map[uint64]Result
}

type Option func(*Client)

// WithOrderedCompletions applies completions in issue order instead of arrival order.
// A completion that arrives early is held until every earlier request has completed.
func WithOrderedCompletions() Option {
	return func(c *Client) { c.ordered = true }
}

func WithTranscript(t *session.Transcript) Option {
	return func(c *Client) { c.transcript = t }
}

func New(log *slog.Logger, svc Service, view Log, controls Controls, opts ...Option) *Client {
	c := &Client{
		log:        log,
		svc:        svc,
		view:       view,
		controls:   controls,
		transcript: session.NewTranscript(),
		held:       make(map[uint64]Result),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RenderBubble appends a bubble to the end of the visible log.
func (c *Client) RenderBubble(text string, sender types.Sender) {
	c.view.Append(types.Bubble{Text: text, Sender: sender})
}

// SendMessage shows the typed message, clears the input and returns the request to dispatch.
// It returns nil and does nothing when the trimmed input is empty.
func (c *Client) SendMessage() *Pending {
	msg := strings.TrimSpace(c.controls.Message())
	if msg == "" {
		return nil
	}

	c.RenderBubble(msg, types.SenderUser)
	c.controls.ClearMessage()

	p := c.controls.Params()
	c.issued++
	return &Pending{
		Seq: c.issued,
		Request: types.ChatRequest{
			Message: msg,
			Role:    p.Role,
			Style:   p.Style,
			Length:  p.Length,
			History: c.transcript.Snapshot(),
		},
	}
}

// Dispatch performs the exchange for p. It makes exactly one attempt.
func (c *Client) Dispatch(ctx context.Context, p *Pending) Result {
	res := Result{Seq: p.Seq, Message: p.Request.Message}
	resp, err := c.svc.Chat(ctx, p.Request)
	switch {
	case err != nil:
		res.Err = err
	case resp.Reply == nil:
		res.Err = ErrNoReply
	default:
		res.Reply = *resp.Reply
	}
	return res
}

// Complete applies a dispatched result to the log and transcript.
func (c *Client) Complete(r Result) {
	if !c.ordered {
		c.apply(r)
		return
	}
	c.held[r.Seq] = r
	for {
		next, ok := c.held[c.applied+1]
		if !ok {
			return
		}
		delete(c.held, next.Seq)
		c.applied = next.Seq
		c.apply(next)
	}
}

func (c *Client) apply(r Result) {
	if r.Err != nil {
		c.log.Error("chat exchange failed", "seq", r.Seq, "err", r.Err)
		c.RenderBubble(ErrorText, types.SenderBot)
		return
	}
	c.RenderBubble(r.Reply, types.SenderBot)
	c.transcript.Append(types.Exchange{Message: r.Message, Reply: r.Reply})
}

// Transcript returns a copy of the completed exchanges.
func (c *Client) Transcript() types.History {
	return c.transcript.Snapshot()
}

// Title labels the session by its first message.
func (c *Client) Title() string {
	return c.transcript.Title()
}

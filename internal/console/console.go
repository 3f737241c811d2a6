// Package console is the line-oriented front end, used when stdin is not a terminal
// or when a full-screen UI is not wanted.
//
// Each input line is either a command (/role, /style, /length, /params, /quit, /exit) or a message.
// Any other line is sent as typed, including ones that start with a slash.
// Lines are handled on an eventloop.Loop; requests run off the loop and their completions are
// posted back to it.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"github.com/varsilias/bubblechat/internal/chatclient"
	"github.com/varsilias/bubblechat/internal/eventloop"
	"github.com/varsilias/bubblechat/pkg/types"
)

type Console struct {
	log    *slog.Logger
	loop   *eventloop.Loop
	client *chatclient.Client
	out    io.Writer

	line   string
	params types.Params
	quit   bool
}

// New builds a console whose bubbles go to view and whose command feedback goes to out.
func New(log *slog.Logger, svc chatclient.Service, view chatclient.Log, out io.Writer, params types.Params, opts ...chatclient.Option) *Console {
	c := &Console{
		log:    log,
		loop:   eventloop.New(),
		out:    out,
		params: params,
	}
	c.client = chatclient.New(log, svc, view, c, opts...)
	return c
}

func (c *Console) Client() *chatclient.Client { return c.client }

// Message, ClearMessage and Params implement chatclient.Controls.
func (c *Console) Message() string      { return c.line }
func (c *Console) ClearMessage()        { c.line = "" }
func (c *Console) Params() types.Params { return c.params }

// Run reads lines from in until EOF, /quit or ctx ends. At EOF or /quit it waits for
// requests already sent to complete, unless ctx ends first.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	loopCtx, stop := context.WithCancel(ctx)
	defer stop()
	go c.loop.Run(loopCtx)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-loopCtx.Done():
				return
			}
		}
		scanErr <- sc.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return errors.Wrap(err, "read input")
				}
				return c.drain(ctx)
			}
			if c.handle(ctx, line) {
				return c.drain(ctx)
			}
		}
	}
}

// handle runs one line on the loop and reports whether reading should stop.
func (c *Console) handle(ctx context.Context, line string) bool {
	done := make(chan bool, 1)
	c.loop.Post(func() {
		c.onLine(ctx, line)
		done <- c.quit
	})
	select {
	case quit := <-done:
		return quit
	case <-ctx.Done():
		return true
	}
}

func (c *Console) onLine(ctx context.Context, line string) {
	if name, arg, ok := parseCommand(line); ok {
		c.command(name, arg)
		return
	}
	c.line = line
	p := c.client.SendMessage()
	if p == nil {
		return
	}
	eventloop.Go(c.loop, func() chatclient.Result {
		return c.client.Dispatch(ctx, p)
	}, c.client.Complete)
}

var commands = map[string]bool{
	"/quit": true, "/exit": true, "/params": true,
	"/role": true, "/style": true, "/length": true,
}

// parseCommand splits a line into a known command and its argument.
func parseCommand(line string) (name, arg string, ok bool) {
	name, arg, _ = strings.Cut(strings.TrimSpace(line), " ")
	if !commands[name] {
		return "", "", false
	}
	return name, strings.TrimSpace(arg), true
}

func (c *Console) command(name, arg string) {
	switch name {
	case "/quit", "/exit":
		c.quit = true
	case "/params":
		c.printf("role: %s  style: %s  length: %s\n", c.params.Role, c.params.Style, c.params.Length)
	case "/role", "/style", "/length":
		if arg == "" {
			c.printf("usage: %s <name>\n", name)
			return
		}
		switch name {
		case "/role":
			c.params.Role = arg
		case "/style":
			c.params.Style = arg
		default:
			c.params.Length = arg
		}
		c.printf("%s set to %s\n", strings.TrimPrefix(name, "/"), arg)
	}
}

// drain waits for in-flight requests to be applied. Every Go call was made by a callback
// that has already run, since handle blocks on it.
func (c *Console) drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.loop.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

var _ chatclient.Controls = (*Console)(nil)

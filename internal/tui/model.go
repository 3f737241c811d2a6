// Package tui is the full-screen terminal front end for the chat client.
//
// Bubbletea runs Update on one goroutine, which is the client's event loop: sends and
// completions both happen there. Network calls run as tea.Cmds and report back as messages.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/varsilias/bubblechat/internal/chatclient"
	"github.com/varsilias/bubblechat/internal/remote"
	"github.com/varsilias/bubblechat/internal/render"
	"github.com/varsilias/bubblechat/pkg/types"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	paramStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Italic(true)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	chromeHeight  = 4 // header, blank, input, help
)

type Options struct {
	Params types.Params
	// Choices seeds the selectors; LoadChoices, if set, replaces them once the service answers.
	Choices     remote.Options
	LoadChoices func(ctx context.Context) (remote.Options, error)
	// Mirror receives every bubble as well, e.g. an HTML transcript.
	Mirror       chatclient.Log
	GlamourStyle string
}

type (
	exchangeMsg chatclient.Result
	choicesMsg  remote.Options
)

type Model struct {
	ctx    context.Context
	log    *slog.Logger
	client *chatclient.Client
	opts   Options

	input    textinput.Model
	viewport viewport.Model
	styler   *render.Styler
	bubbles  []types.Bubble

	roles, styles, lengths []string
	role, style, length    int

	inflight int
	width    int
}

func New(ctx context.Context, log *slog.Logger, svc chatclient.Service, opts Options, clientOpts ...chatclient.Option) (*Model, error) {
	if opts.GlamourStyle == "" {
		opts.GlamourStyle = "dark"
	}
	styler, err := render.NewStyler(defaultWidth, opts.GlamourStyle)
	if err != nil {
		return nil, err
	}

	ti := textinput.New()
	ti.Placeholder = "Type a message and press Enter"
	ti.Prompt = "› "
	ti.CharLimit = 4000
	ti.Focus()

	m := &Model{
		ctx:      ctx,
		log:      log,
		opts:     opts,
		input:    ti,
		viewport: viewport.New(defaultWidth, defaultHeight-chromeHeight),
		styler:   styler,
		width:    defaultWidth,
	}
	m.setChoices(opts.Choices, opts.Params)
	m.client = chatclient.New(log, svc, m, m, clientOpts...)
	return m, nil
}

// Client exposes the underlying chat client, mostly for inspection.
func (m *Model) Client() *chatclient.Client { return m.client }

// Append implements chatclient.Log: add the bubble and scroll to it.
func (m *Model) Append(b types.Bubble) {
	m.bubbles = append(m.bubbles, b)
	if m.opts.Mirror != nil {
		m.opts.Mirror.Append(b)
	}
	m.refresh()
}

// Message, ClearMessage and Params implement chatclient.Controls.
func (m *Model) Message() string { return m.input.Value() }

func (m *Model) ClearMessage() { m.input.Reset() }

func (m *Model) Params() types.Params {
	return types.Params{
		Role:   pick(m.roles, m.role),
		Style:  pick(m.styles, m.style),
		Length: pick(m.lengths, m.length),
	}
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.opts.LoadChoices != nil {
		load := m.opts.LoadChoices
		ctx := m.ctx
		log := m.log
		cmds = append(cmds, func() tea.Msg {
			opts, err := load(ctx)
			if err != nil {
				log.Warn("could not load reply options; using defaults", "err", err)
				return nil
			}
			return choicesMsg(opts)
		})
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			p := m.client.SendMessage()
			if p == nil {
				return m, nil
			}
			m.inflight++
			return m, m.dispatch(p)
		case tea.KeyCtrlR:
			m.role = next(m.role, len(m.roles))
			return m, nil
		case tea.KeyCtrlT:
			m.style = next(m.style, len(m.styles))
			return m, nil
		case tea.KeyCtrlL:
			m.length = next(m.length, len(m.lengths))
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case exchangeMsg:
		m.inflight--
		m.client.Complete(chatclient.Result(msg))
		return m, nil
	case choicesMsg:
		m.setChoices(remote.Options(msg), m.Params())
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter send · ctrl+r role · ctrl+t style · ctrl+l length · pgup/pgdn scroll · esc quit"))
	return b.String()
}

func (m *Model) header() string {
	title := "bubblechat"
	if t := m.client.Title(); t != "" {
		title += " · " + t
	}
	p := m.Params()
	h := titleStyle.Render(title) + "  " +
		paramStyle.Render(fmt.Sprintf("role: %s  style: %s  length: %s", p.Role, p.Style, p.Length))
	if m.inflight > 0 {
		h += "  " + pendingStyle.Render(fmt.Sprintf("waiting for %d repl%s…", m.inflight, plural(m.inflight, "y", "ies")))
	}
	return h
}

func (m *Model) dispatch(p *chatclient.Pending) tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		return exchangeMsg(client.Dispatch(ctx, p))
	}
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.viewport.Width = width
	m.viewport.Height = max(height-chromeHeight, 3)
	m.input.Width = max(width-4, 10)
	if styler, err := render.NewStyler(width, m.opts.GlamourStyle); err == nil {
		m.styler = styler
	} else {
		m.log.Warn("restyle failed", "err", err)
	}
	m.refresh()
}

// refresh redraws the log from the bubble list and keeps the newest bubble in view.
func (m *Model) refresh() {
	parts := make([]string, 0, len(m.bubbles))
	for _, b := range m.bubbles {
		parts = append(parts, m.styler.Render(b))
	}
	m.viewport.SetContent(strings.Join(parts, "\n"))
	m.viewport.GotoBottom()
}

func (m *Model) setChoices(c remote.Options, current types.Params) {
	m.roles, m.role = withSelected(c.Roles, current.Role)
	m.styles, m.style = withSelected(c.Styles, current.Style)
	m.lengths, m.length = withSelected(c.Lengths, current.Length)
}

// withSelected returns names with sel in it (appended if missing) and sel's index.
// An empty sel selects the first name.
func withSelected(names []string, sel string) ([]string, int) {
	out := append([]string(nil), names...)
	if sel == "" {
		return out, 0
	}
	for i, n := range out {
		if n == sel {
			return out, i
		}
	}
	return append(out, sel), len(out)
}

func pick(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return ""
	}
	return names[i]
}

func next(i, n int) int {
	if n == 0 {
		return 0
	}
	return (i + 1) % n
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

var (
	_ chatclient.Log      = (*Model)(nil)
	_ chatclient.Controls = (*Model)(nil)
	_ tea.Model           = (*Model)(nil)
)

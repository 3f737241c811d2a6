package tui

import (
	"context"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/varsilias/bubblechat/internal/chatclient"
	"github.com/varsilias/bubblechat/internal/logging"
	"github.com/varsilias/bubblechat/internal/remote"
	"github.com/varsilias/bubblechat/pkg/types"
)

type fakeService struct {
	mu   sync.Mutex
	reqs []types.ChatRequest
	fail bool
}

func (f *fakeService) Chat(_ context.Context, req types.ChatRequest) (types.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.fail {
		return types.ChatResponse{}, errors.New("connection refused")
	}
	reply := "re: " + req.Message
	return types.ChatResponse{Reply: &reply}, nil
}

type recordLog struct{ bubbles []types.Bubble }

func (r *recordLog) Append(b types.Bubble) { r.bubbles = append(r.bubbles, b) }

var choices = remote.Options{
	Roles:   []string{"Assistant", "Pirate"},
	Styles:  []string{"Formal", "Friendly"},
	Lengths: []string{"Long", "Short"},
}

func newModel(t *testing.T, svc chatclient.Service, mirror chatclient.Log) *Model {
	t.Helper()
	m, err := New(context.Background(), logging.Discard(), svc, Options{
		Params:       types.Params{Style: "Friendly"},
		Choices:      choices,
		Mirror:       mirror,
		GlamourStyle: "notty",
	})
	require.NoError(t, err)
	return m
}

func typeAndSend(t *testing.T, m *Model, text string) tea.Cmd {
	t.Helper()
	m.input.SetValue(text)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func TestEnterSendsAndCompletes(t *testing.T) {
	svc := &fakeService{}
	mirror := &recordLog{}
	m := newModel(t, svc, mirror)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	cmd := typeAndSend(t, m, "  Hello  ")
	require.NotNil(t, cmd)
	require.Equal(t, "", m.Message())
	require.Equal(t, 1, m.inflight)
	require.Equal(t, []types.Bubble{{Text: "Hello", Sender: types.SenderUser}}, m.bubbles)

	m.Update(cmd())
	require.Equal(t, 0, m.inflight)
	require.Len(t, m.bubbles, 2)
	require.Equal(t, types.Bubble{Text: "re: Hello", Sender: types.SenderBot}, m.bubbles[1])
	require.Equal(t, m.bubbles, mirror.bubbles)
	require.Equal(t, types.History{{Message: "Hello", Reply: "re: Hello"}}, m.Client().Transcript())

	require.Len(t, svc.reqs, 1)
	require.Equal(t, "Assistant", svc.reqs[0].Role)
	require.Equal(t, "Friendly", svc.reqs[0].Style)
	require.Equal(t, "Long", svc.reqs[0].Length)
	require.Empty(t, svc.reqs[0].History)

	view := m.View()
	require.Contains(t, view, "Hello")
	require.Contains(t, view, "re: Hello")
	require.Contains(t, view, "bubblechat · Hello")
}

func TestEmptyInputIsIgnored(t *testing.T) {
	svc := &fakeService{}
	m := newModel(t, svc, nil)

	cmd := typeAndSend(t, m, "   ")
	require.Nil(t, cmd)
	require.Empty(t, m.bubbles)
	require.Empty(t, svc.reqs)
}

func TestFailureShowsErrorBubble(t *testing.T) {
	m := newModel(t, &fakeService{fail: true}, nil)

	cmd := typeAndSend(t, m, "Hello")
	m.Update(cmd())

	require.Len(t, m.bubbles, 2)
	require.Equal(t, types.Bubble{Text: chatclient.ErrorText, Sender: types.SenderBot}, m.bubbles[1])
	require.Empty(t, m.Client().Transcript())
}

func TestCompletionsApplyInArrivalOrder(t *testing.T) {
	svc := &fakeService{}
	m := newModel(t, svc, nil)

	first := typeAndSend(t, m, "A")
	second := typeAndSend(t, m, "B")
	require.Equal(t, 2, m.inflight)

	m.Update(second())
	m.Update(first())

	require.Equal(t, []types.Bubble{
		{Text: "A", Sender: types.SenderUser},
		{Text: "B", Sender: types.SenderUser},
		{Text: "re: B", Sender: types.SenderBot},
		{Text: "re: A", Sender: types.SenderBot},
	}, m.bubbles)
	require.Equal(t, types.History{
		{Message: "B", Reply: "re: B"},
		{Message: "A", Reply: "re: A"},
	}, m.Client().Transcript())
	require.Empty(t, svc.reqs[1].History)
}

func TestSelectorsCycle(t *testing.T) {
	m := newModel(t, &fakeService{}, nil)
	require.Equal(t, types.Params{Role: "Assistant", Style: "Friendly", Length: "Long"}, m.Params())

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	require.Equal(t, types.Params{Role: "Pirate", Style: "Formal", Length: "Short"}, m.Params())

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.Equal(t, "Assistant", m.Params().Role)
}

func TestChoicesKeepSelection(t *testing.T) {
	m := newModel(t, &fakeService{}, nil)
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})

	m.Update(choicesMsg(remote.Options{
		Roles:   []string{"Assistant", "Chef", "Pirate"},
		Styles:  []string{"Friendly"},
		Lengths: []string{"Short"},
	}))

	require.Equal(t, "Pirate", m.Params().Role)
	require.Equal(t, "Friendly", m.Params().Style)
	// Long was selected but the service no longer lists it; it stays selectable.
	require.Equal(t, []string{"Short", "Long"}, m.lengths)
	require.Equal(t, "Long", m.Params().Length)
}

func TestQuitKeys(t *testing.T) {
	m := newModel(t, &fakeService{}, nil)
	for _, k := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		_, cmd := m.Update(tea.KeyMsg{Type: k})
		require.NotNil(t, cmd)
		require.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestWithSelected(t *testing.T) {
	names, i := withSelected([]string{"a", "b"}, "b")
	require.Equal(t, []string{"a", "b"}, names)
	require.Equal(t, 1, i)

	names, i = withSelected(nil, "x")
	require.Equal(t, []string{"x"}, names)
	require.Equal(t, 0, i)

	_, i = withSelected([]string{"a"}, "")
	require.Equal(t, 0, i)
}

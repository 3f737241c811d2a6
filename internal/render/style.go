// Package render draws chat bubbles for the terminal and for HTML transcripts.
package render

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/varsilias/bubblechat/internal/chatclient"
	"github.com/varsilias/bubblechat/pkg/types"
)

var (
	userBubble = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Foreground(lipgloss.Color("#FFFDF5")).
			Padding(0, 1)

	botBubble = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1)

	errorBubble = botBubble.
			BorderForeground(lipgloss.Color("196")).
			Foreground(lipgloss.Color("196"))
)

// Styler turns bubbles into terminal text: user bubbles on the right, bot bubbles on the left.
type Styler struct {
	width int
	md    *glamour.TermRenderer
}

// NewStyler builds a styler for a log that is width cells wide. style names a glamour
// standard style ("dark", "light", "notty", ...).
func NewStyler(width int, style string) (*Styler, error) {
	if width < 20 {
		width = 20
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(bubbleWidth(width)-4),
	)
	if err != nil {
		return nil, err
	}
	return &Styler{width: width, md: md}, nil
}

func (s *Styler) Width() int { return s.width }

// Render draws one bubble.
func (s *Styler) Render(b types.Bubble) string {
	inner := bubbleWidth(s.width) - 4
	switch b.Sender {
	case types.SenderUser:
		box := userBubble.Width(fit(b.Text, inner) + 2).Render(b.Text)
		return lipgloss.PlaceHorizontal(s.width, lipgloss.Right, box)
	default:
		style := botBubble
		if b.Text == chatclient.ErrorText {
			style = errorBubble
		}
		text := s.markdown(b.Text)
		box := style.Width(fit(text, inner) + 2).Render(text)
		return lipgloss.PlaceHorizontal(s.width, lipgloss.Left, box)
	}
}

func (s *Styler) markdown(src string) string {
	out, err := s.md.Render(src)
	if err != nil {
		return src
	}
	lines := strings.Split(strings.Trim(out, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	// glamour indents every line by its document margin
	return strings.TrimSpace(dedent(lines))
}

func dedent(lines []string) string {
	min := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " "))
		if min < 0 || n < min {
			min = n
		}
	}
	if min <= 0 {
		return strings.Join(lines, "\n")
	}
	for i, l := range lines {
		if len(l) >= min {
			lines[i] = l[min:]
		}
	}
	return strings.Join(lines, "\n")
}

// bubbleWidth keeps bubbles to three quarters of the log so sides stay readable.
func bubbleWidth(width int) int {
	return width * 3 / 4
}

// fit is the content width for text: its widest line, capped at max.
func fit(text string, max int) int {
	w := lipgloss.Width(text)
	if w > max {
		return max
	}
	if w < 1 {
		return 1
	}
	return w
}

package render

import (
	"io"

	"github.com/varsilias/bubblechat/internal/chatclient"
	"github.com/varsilias/bubblechat/pkg/types"
)

// Terminal writes each bubble to w as it arrives; the terminal's own scrollback keeps the newest in view.
type Terminal struct {
	w     io.Writer
	style *Styler
}

func NewTerminal(w io.Writer, style *Styler) *Terminal {
	return &Terminal{w: w, style: style}
}

func (t *Terminal) Append(b types.Bubble) {
	_, _ = io.WriteString(t.w, t.style.Render(b)+"\n")
}

// Multi fans one bubble out to several logs, in order.
type Multi []chatclient.Log

func (m Multi) Append(b types.Bubble) {
	for _, l := range m {
		l.Append(b)
	}
}

var (
	_ chatclient.Log = (*Terminal)(nil)
	_ chatclient.Log = Multi(nil)
)

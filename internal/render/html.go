package render

import (
	"bytes"
	"html/template"
	"io"
	"log/slog"
	"time"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/microcosm-cc/bluemonday"
	"github.com/varsilias/bubblechat/internal/chatclient"
	"github.com/varsilias/bubblechat/pkg/types"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

const bubbleTpl = `<div class="bubble {{.Sender}}" data-at="{{.At}}">{{.HTML}}</div>
`

// HTML appends each bubble to w as a sanitized HTML fragment.
// User text is escaped verbatim; bot text is rendered as markdown first.
type HTML struct {
	log    *slog.Logger
	w      io.Writer
	tpl    *template.Template
	md     goldmark.Markdown
	policy *bluemonday.Policy
	now    func() time.Time
}

type bubbleView struct {
	Sender types.Sender
	HTML   template.HTML
	At     string
}

func NewHTML(log *slog.Logger, w io.Writer) *HTML {
	md := goldmark.New(
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		goldmark.WithExtensions(
			highlighting.NewHighlighting(
				highlighting.WithStyle("dracula"),
				highlighting.WithFormatOptions(
					chromahtml.WithLineNumbers(false),
				),
			),
		),
	)

	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("code", "pre", "span")
	p.AllowAttrs("style").OnElements("span", "pre") // inline styles from the highlighter

	return &HTML{
		log:    log,
		w:      w,
		tpl:    template.Must(template.New("bubble").Parse(bubbleTpl)),
		md:     md,
		policy: p,
		now:    time.Now,
	}
}

func (h *HTML) Append(b types.Bubble) {
	view := bubbleView{Sender: b.Sender, At: h.now().UTC().Format(time.RFC3339)}
	if b.Sender == types.SenderUser {
		view.HTML = template.HTML(template.HTMLEscapeString(b.Text))
	} else {
		view.HTML = h.mdHTML(b.Text)
	}
	if err := h.tpl.Execute(h.w, view); err != nil {
		h.log.Error("html log write", "err", err)
	}
}

func (h *HTML) mdHTML(src string) template.HTML {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(h.policy.SanitizeBytes(buf.Bytes()))
}

var _ chatclient.Log = (*HTML)(nil)

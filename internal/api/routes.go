package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/varsilias/bubblechat/internal/middleware"
)

type RouteOptions struct {
	// ChatLimit wraps POST /chat, typically a rate limiter. Nil means none.
	ChatLimit func(http.Handler) http.Handler
	// StaticDir, if set, is served under /static/.
	StaticDir string
}

func RegisterRoutes(mux chi.Router, h *Handlers, opts RouteOptions) {
	mux.Get("/", h.Home)
	mux.Get("/healthz", h.Health)
	mux.Get("/version", h.Version)

	mux.Group(func(r chi.Router) {
		if opts.ChatLimit != nil {
			r.Use(opts.ChatLimit)
		}
		r.Post("/chat", h.Chat)
	})

	mux.Get("/chatbot_roles", h.Roles)
	mux.Get("/chat_styles", h.Styles)
	mux.Get("/reply_length", h.Lengths)
	mux.Get("/reset", h.Reset)

	if opts.StaticDir != "" {
		mux.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir))))
	}
}

// NewRouter builds the full service handler with the standard middleware stack.
func NewRouter(log *slog.Logger, h *Handlers, opts RouteOptions) http.Handler {
	mux := chi.NewRouter()
	mux.Use(
		middleware.RequestID(),
		middleware.AccessLog(log),
		middleware.Recoverer(log),
		middleware.VersionHeader(),
		middleware.CORS(),
	)
	RegisterRoutes(mux, h, opts)
	return mux
}

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/varsilias/bubblechat/internal/buildinfo"
	"github.com/varsilias/bubblechat/internal/chat"
	"github.com/varsilias/bubblechat/internal/middleware"
	"github.com/varsilias/bubblechat/internal/persona"
	"github.com/varsilias/bubblechat/pkg/types"
	"github.com/varsilias/bubblechat/pkg/utils"
)

type Handlers struct {
	log      *slog.Logger
	chat     *chat.Controller
	personas *persona.Catalog
}

func NewHandlers(log *slog.Logger, chatCtrl *chat.Controller, personas *persona.Catalog) *Handlers {
	return &Handlers{
		log:      log,
		chat:     chatCtrl,
		personas: personas,
	}
}

// Home GET /
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]any{"message": "bubblechat chat service"})
}

// Health is a basic liveness endpoint.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	res := map[string]any{
		"status":    true,
		"message":   "bubblechat",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	utils.JSON(w, http.StatusOK, res)
}

func (h *Handlers) Version(w http.ResponseWriter, r *http.Request) {
	res := map[string]any{
		"version":  buildinfo.Version,
		"commit":   buildinfo.Commit,
		"built_at": buildinfo.BuiltAt,
	}

	utils.JSON(w, http.StatusOK, res)
}

// maxChatBody caps a /chat request, history included.
const maxChatBody = 1 << 20

// Chat POST /chat { message, role, style, length, history }
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			utils.Error(w, http.StatusRequestEntityTooLarge, "request too large")
			return
		}
		utils.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		utils.Error(w, http.StatusBadRequest, "message is required")
		return
	}

	resp, latency, err := h.chat.Chat(r.Context(), req)
	if err != nil {
		h.log.Error("chat failed", "req_id", middleware.GetRequestID(r.Context()), "err", err)
		utils.Error(w, http.StatusBadGateway, err.Error())
		return
	}

	h.log.Info("chat",
		"req_id", middleware.GetRequestID(r.Context()),
		"role", req.Role,
		"history", len(req.History),
		"latency_ms", latency.Milliseconds(),
	)
	utils.JSON(w, http.StatusOK, resp)
}

// Roles GET /chatbot_roles
func (h *Handlers) Roles(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.personas.Prompts(persona.KindRole))
}

// Styles GET /chat_styles
func (h *Handlers) Styles(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.personas.Prompts(persona.KindStyle))
}

// Lengths GET /reply_length
func (h *Handlers) Lengths(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.personas.Prompts(persona.KindLength))
}

// Reset GET /reset. The service keeps no history; clients start over with what this returns.
func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]any{"history": types.History{}})
}

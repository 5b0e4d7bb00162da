package chat

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	chatService "github.com/quantquest/chatbot/internal/service/chat"
	"github.com/quantquest/chatbot/pkg/utils"
)

// maxContentLength bounds a single user message in bytes.
const maxContentLength = 4000

// Handler serves the chat widget's HTTP API.
type Handler struct {
	chatSvc *chatService.Service
	ws      *WebSocketHandler
}

// New creates a chat handler.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		ws:      NewWebSocketHandler(chatSvc),
	}
}

// RegisterRoutes registers chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/chat", func(r chi.Router) {
		r.Get("/session", h.handleGetSession)
		r.Delete("/session", h.handleClearSession)
		r.Get("/messages", h.handleListMessages)
		r.Post("/messages", h.handleSendMessage)
		r.Get("/ws", h.ws.handleWebSocket)
	})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.chatSvc.GetCurrentSession()
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleClearSession(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.chatSvc.ClearSession())
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.chatSvc.GetMessageHistory())
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validateContent(payload.Content); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	message, err := h.chatSvc.DispatchWithRateLimit(r.Context(), payload.Content)
	if err != nil {
		var limited *chatService.RateLimitedError
		if errors.As(err, &limited) {
			seconds := int(math.Ceil(limited.RetryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			utils.RespondError(w, http.StatusTooManyRequests, limited.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, message)
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("content is required")
	}
	if len(content) > maxContentLength {
		return errors.New("content is too long")
	}
	return nil
}

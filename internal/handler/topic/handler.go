package topic

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quantquest/chatbot/internal/model/topic"
	"github.com/quantquest/chatbot/pkg/utils"
)

// Handler serves the topic catalog the widget shows as suggested questions.
type Handler struct {
	topics topic.Store
}

// New creates a topic handler.
func New(topics topic.Store) *Handler {
	return &Handler{topics: topics}
}

// RegisterRoutes registers topic routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/topics", h.handleListTopics)
}

func (h *Handler) handleListTopics(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.topics.List())
}

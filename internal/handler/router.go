package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/quantquest/chatbot/internal/handler/chat"
	"github.com/quantquest/chatbot/internal/handler/topic"
	topicModel "github.com/quantquest/chatbot/internal/model/topic"
	chatService "github.com/quantquest/chatbot/internal/service/chat"
	"github.com/quantquest/chatbot/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(topics topicModel.Store, chatSvc *chatService.Service, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"Retry-After"},
	}).Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"status":    "ok",
			"responder": chatSvc.ResponderName(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		topic.New(topics).RegisterRoutes(api)
		chat.New(chatSvc).RegisterRoutes(api)
	})

	return r
}

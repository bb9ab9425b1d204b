package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/voicerelay/backend/internal/handler/conversation"
	"github.com/voicerelay/backend/internal/handler/voice"
	middlewarePkg "github.com/voicerelay/backend/internal/middleware"
	"github.com/voicerelay/backend/internal/service/session"
	"github.com/voicerelay/backend/internal/store"
)

// NewRouter wires HTTP routes to core services. A nil registry disables the
// voice endpoint (503) while the read API stays available.
func NewRouter(registry *session.Registry, st store.Store) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	voiceHandler := voice.New(registry)
	voiceHandler.RegisterRoutes(r)

	conversationHandler := conversation.New(st)
	r.Route("/api", func(api chi.Router) {
		conversationHandler.RegisterRoutes(api)
	})

	return r
}

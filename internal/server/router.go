package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/doculens-ai/doculens/internal/api"
	"github.com/doculens-ai/doculens/internal/api/handlers"
	"github.com/doculens-ai/doculens/internal/api/middleware"
)

type RouterConfig struct {
	ChatHandler     *handlers.ChatHandler
	IngestHandler   *handlers.IngestHandler
	ValidateHandler *handlers.ValidateHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/chat", cfg.ChatHandler.Chat)
	r.Post("/validate", cfg.ValidateHandler.Validate)

	r.Route("/ingest", func(r chi.Router) {
		r.Post("/", cfg.IngestHandler.Enqueue)
		r.Get("/{id}", cfg.IngestHandler.Get)
	})

	return r
}

package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/relayworks/cortex/internal/api"
	"github.com/relayworks/cortex/internal/api/handlers"
	"github.com/relayworks/cortex/internal/api/middleware"
)

type RouterConfig struct {
	ArticleHandler  *handlers.ArticleHandler
	DocumentHandler *handlers.DocumentHandler
	AskHandler      *handlers.AskHandler
	ProjectHandler  *handlers.ProjectHandler
	MemberHandler   *handlers.MemberHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Uploads carry whole documents; everything else is small JSON.
	const maxBodyBytes int64 = 32 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessScope)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/articles", func(r chi.Router) {
		r.Post("/", cfg.ArticleHandler.Create)
		r.Get("/", cfg.ArticleHandler.List)
		r.Get("/{id}", cfg.ArticleHandler.Get)
		r.Get("/{id}/source", cfg.ArticleHandler.Source)
		r.Put("/{id}", cfg.ArticleHandler.Update)
		r.Delete("/{id}", cfg.ArticleHandler.Delete)
	})

	r.Post("/documents", cfg.DocumentHandler.Ingest)

	r.Get("/search", cfg.AskHandler.Search)
	r.Post("/ask", cfg.AskHandler.Ask)

	r.Route("/projects", func(r chi.Router) {
		r.Post("/", cfg.ProjectHandler.Create)
		r.Get("/", cfg.ProjectHandler.List)
		r.Get("/{id}", cfg.ProjectHandler.Get)
	})

	r.Route("/members", func(r chi.Router) {
		r.Post("/", cfg.MemberHandler.Create)
		r.Get("/", cfg.MemberHandler.List)
		r.Get("/{id}", cfg.MemberHandler.Get)
	})

	return r
}

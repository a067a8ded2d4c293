package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"documind/internal/api"
	"documind/internal/metrics"
)

func New(h *api.Handlers) http.Handler {
	r := chi.NewRouter()

	r.Get("/api/v1/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Get("/ws/collab", h.CollabWS)

	r.Route("/api/v1/documents", func(r chi.Router) {
		r.Get("/public", h.ListPublicDocuments)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)
			r.Post("/", h.CreateDocument)
			r.Get("/", h.ListMyDocuments)
			r.Get("/shared", h.ListSharedDocuments)
			r.Get("/{id}", h.GetDocument)
			r.Get("/{id}/access", h.CheckDocumentAccess)
			r.Get("/{id}/summaries", h.ListSummaries)
			r.Post("/{id}/share", h.ShareDocument)
			r.Put("/{id}", h.UpdateDocument)
			r.Patch("/{id}", h.UpdateDocument)
			r.Delete("/{id}", h.DeleteDocument)
		})
	})

	r.Route("/api/v1/summaries", func(r chi.Router) {
		r.Use(h.Authenticate)
		r.Post("/", h.CreateSummary)
	})

	r.Route("/api/v1/ai", func(r chi.Router) {
		r.Use(h.Authenticate)
		r.Post("/generate-title", h.GenerateTitle)
		r.Post("/process", h.ProcessPrompt)
	})

	return r
}

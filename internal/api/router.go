package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qinolabs/qino/internal/index"
	"github.com/qinolabs/qino/internal/ops"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// cache may be nil; search and action-item routes are skipped then.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(o ops.Ops, cache index.Cache, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(o, cache)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Workspace config.
	r.Get("/config", h.GetConfig)

	// Graph reads.
	r.Get("/graph", h.GetGraph)

	// Nodes.
	r.Post("/nodes", h.CreateNode)
	r.Get("/nodes/{id}", h.GetNode)
	r.Put("/nodes/{id}/view", h.UpdateView)

	// Annotations.
	r.Post("/nodes/{id}/annotations", h.WriteAnnotation)
	r.Post("/nodes/{id}/annotations/{filename}/resolve", h.ResolveAnnotation)

	// Journal.
	r.Post("/journal", h.WriteJournalEntry)

	// Cache-backed queries.
	if cache != nil {
		r.Get("/search", h.Search)
		r.Get("/actions", h.ActionItems)
	}

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

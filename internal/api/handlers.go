package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/qinolabs/qino/internal/apperr"
	"github.com/qinolabs/qino/internal/index"
	"github.com/qinolabs/qino/internal/models"
	"github.com/qinolabs/qino/internal/ops"
)

// Handler holds API route handlers over the Ops boundary and the cache.
type Handler struct {
	ops   ops.Ops
	cache index.Cache
}

// NewHandler creates a new Handler. cache may be nil when search and
// action-item routes are not mounted.
func NewHandler(o ops.Ops, cache index.Cache) *Handler {
	return &Handler{ops: o, cache: cache}
}

// graphDir extracts the graph scope from the request ("" = root graph).
func graphDir(r *http.Request) string {
	return r.URL.Query().Get("graph")
}

// writeOpError maps store error kinds onto HTTP status codes. The error
// message text is forwarded: callers match on it.
func writeOpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotConfigured), errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		slog.Error("operation failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// GetConfig handles GET /api/config.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.ops.ReadConfig(r.Context())
	if err != nil {
		writeOpError(w, err)
		return
	}
	if cfg == nil {
		cfg = map[string]any{}
	}
	writeJSON(w, http.StatusOK, cfg)
}

// GetGraph handles GET /api/graph.
func (h *Handler) GetGraph(w http.ResponseWriter, r *http.Request) {
	g, err := h.ops.ReadGraph(r.Context(), graphDir(r))
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// GetNode handles GET /api/nodes/{id}.
func (h *Handler) GetNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := h.ops.ReadNode(r.Context(), graphDir(r), id)
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// CreateNode handles POST /api/nodes.
func (h *Handler) CreateNode(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var spec models.CreateNodeSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	d, err := h.ops.CreateNode(r.Context(), graphDir(r), spec)
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// WriteAnnotation handles POST /api/nodes/{id}/annotations.
func (h *Handler) WriteAnnotation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Signal models.Signal `json:"signal"`
		Body   string        `json:"body"`
		Target string        `json:"target,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Body == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("body is required"))
		return
	}
	filename, err := h.ops.WriteAnnotation(r.Context(), graphDir(r), id, req.Signal, req.Body, req.Target)
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"filename": filename})
}

// ResolveAnnotation handles POST /api/nodes/{id}/annotations/{filename}/resolve.
func (h *Handler) ResolveAnnotation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	filename := chi.URLParam(r, "filename")
	var req struct {
		Status models.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.ops.ResolveAnnotation(r.Context(), graphDir(r), id, filename, req.Status); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// WriteJournalEntry handles POST /api/journal.
func (h *Handler) WriteJournalEntry(w http.ResponseWriter, r *http.Request) {
	var entry models.JournalEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.ops.WriteJournalEntry(r.Context(), graphDir(r), entry); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateView handles PUT /api/nodes/{id}/view.
func (h *Handler) UpdateView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var view models.ViewData
	if err := json.NewDecoder(r.Body).Decode(&view); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.ops.UpdateView(r.Context(), graphDir(r), id, view); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.cache.Search(q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// ActionItems handles GET /api/actions.
func (h *Handler) ActionItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.cache.ActionItems()
	if err != nil {
		slog.Error("action items failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if items == nil {
		items = []index.ActionItemRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

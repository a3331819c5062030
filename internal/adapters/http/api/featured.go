package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/featured/internal/app"
)

// FeaturedDependencies reads the stored snapshot.
type FeaturedDependencies interface {
	Featured(ctx context.Context) (Snapshot, error)
}

// FeaturedHandler serves the last stored snapshot.
type FeaturedHandler struct {
	deps FeaturedDependencies
}

// NewFeaturedHandler creates a new featured handler.
func NewFeaturedHandler(deps FeaturedDependencies) *FeaturedHandler {
	return &FeaturedHandler{deps: deps}
}

// HandleGetFeatured handles GET /featured-repositories requests.
func (h *FeaturedHandler) HandleGetFeatured(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_featured"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	snap, err := h.deps.Featured(r.Context())
	if errors.Is(err, service.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	service "github.com/okian/featured/internal/app"
)

// UpdateDependencies runs a featured-repository update.
type UpdateDependencies interface {
	UpdateFeatured(ctx context.Context, o service.Overrides) (service.RunResult, error)
}

// UpdateHandler is the scheduler-facing trigger.
type UpdateHandler struct {
	deps               UpdateDependencies
	failOnPersistError bool
}

// NewUpdateHandler creates a new update handler.
func NewUpdateHandler(deps UpdateDependencies, failOnPersistError bool) *UpdateHandler {
	return &UpdateHandler{deps: deps, failOnPersistError: failOnPersistError}
}

// HandleUpdate handles POST|GET /update-featured-repositories.
//
// Optional min_stars and limit query parameters override the configured
// thresholds. Integers are passed through unvalidated.
func (h *UpdateHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_featured"
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	var o service.Overrides
	q := r.URL.Query()
	for name, dst := range map[string]**int{"min_stars": &o.MinStars, "limit": &o.Limit} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op+": "+name+" must be an integer", ErrBadRequest))
			return
		}
		*dst = &v
	}

	_, err := h.deps.UpdateFeatured(r.Context(), o)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrPersist):
		if h.failOnPersistError {
			writeError(w, http.StatusInternalServerError, "persist_failed", Wrap(op, err))
			return
		}
	default:
		writeError(w, http.StatusInternalServerError, "query_failed", Wrap(op, err))
		return
	}
	writeText(w, http.StatusOK, "OK")
}

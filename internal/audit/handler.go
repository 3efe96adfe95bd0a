package audit

import (
	"context"
	"net/http"

	"github.com/frahmantamala/performance-tracker/internal/transport"
)

type Lister interface {
	List(ctx context.Context, filter Filter) ([]*Entry, error)
}

type Handler struct {
	*transport.BaseHandler
	Repo Lister
}

func NewHandler(baseHandler *transport.BaseHandler, repo Lister) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Repo:        repo,
	}
}

// List handles GET /audit-log
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := h.Repo.List(r.Context(), Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
		Limit:      h.ParseLimit(r, 100, 1000),
	})
	if err != nil {
		h.Logger.Error("failed to list audit entries", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}
	if entries == nil {
		entries = []*Entry{}
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

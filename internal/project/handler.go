package project

import (
	"context"
	"net/http"

	"github.com/frahmantamala/performance-tracker/internal/transport"
)

type ServiceAPI interface {
	ListProjects(ctx context.Context) ([]ProjectResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) GetProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Service.ListProjects(r.Context())
	if err != nil {
		h.Logger.Error("GetProjects: failed to get projects", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ProjectsResponse{
		Projects: projects,
	})
}

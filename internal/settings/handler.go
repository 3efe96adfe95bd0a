package settings

import (
	"context"
	"net/http"

	"github.com/frahmantamala/performance-tracker/internal/auth"
	coreUser "github.com/frahmantamala/performance-tracker/internal/core/user"
	"github.com/frahmantamala/performance-tracker/internal/scoring"
	"github.com/frahmantamala/performance-tracker/internal/transport"
)

type ServiceAPI interface {
	GetScoringWeights(ctx context.Context) (scoring.Weights, error)
	UpdateScoringWeights(ctx context.Context, actorID int64, actorRole coreUser.Role, w scoring.Weights) (scoring.Weights, error)
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

func (h *Handler) GetScoringWeights(w http.ResponseWriter, r *http.Request) {
	weights, err := h.Service.GetScoringWeights(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, weights)
}

func (h *Handler) UpdateScoringWeights(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body scoring.Weights
	if err := h.DecodeJSON(r, &body); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	updated, err := h.Service.UpdateScoringWeights(r.Context(), user.ID, user.Role, body)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, updated)
}

package feedback

import (
	"context"
	"net/http"

	"github.com/frahmantamala/performance-tracker/internal/auth"
	"github.com/frahmantamala/performance-tracker/internal/transport"
)

type ServiceAPI interface {
	Create(ctx context.Context, fromUserID int64, dto CreateFeedbackDTO) (*Feedback, error)
	ListReceived(ctx context.Context, userID int64) ([]*Feedback, error)
	ListGiven(ctx context.Context, userID int64) ([]*Feedback, error)
	Summary(ctx context.Context, userID int64) (*Summary, error)
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

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateFeedbackDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	f, err := h.Service.Create(r.Context(), user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, f)
}

func (h *Handler) ListReceived(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Service.ListReceived)
}

func (h *Handler) ListGiven(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Service.ListGiven)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, fetch func(context.Context, int64) ([]*Feedback, error)) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	items, err := fetch(r.Context(), user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if items == nil {
		items = []*Feedback{}
	}

	h.WriteJSON(w, http.StatusOK, FeedbackListResponse{Feedback: items})
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	summary, err := h.Service.Summary(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}

package task

import (
	"context"
	"net/http"

	"github.com/frahmantamala/performance-tracker/internal/auth"
	coreUser "github.com/frahmantamala/performance-tracker/internal/core/user"
	"github.com/frahmantamala/performance-tracker/internal/transport"
)

type ServiceAPI interface {
	ValidateTask(ctx context.Context, taskID int64, dto ValidateTaskDTO, validatorID int64, validatorRole coreUser.Role) (*ValidationResult, error)
	GetHistory(ctx context.Context, taskID int64) ([]HistoryEntry, error)
	GetTask(ctx context.Context, taskID int64) (*Task, error)
	ListOwned(ctx context.Context, userID int64, limit int) ([]*Task, error)
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

func (h *Handler) ValidateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	taskID, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto ValidateTaskDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	result, err := h.Service.ValidateTask(r.Context(), taskID, dto, user.ID, user.Role)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) GetValidationHistory(w http.ResponseWriter, r *http.Request) {
	taskID, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	entries, err := h.Service.GetHistory(r.Context(), taskID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []HistoryEntry{}
	}

	h.WriteJSON(w, http.StatusOK, HistoryResponse{TaskID: taskID, History: entries})
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	t, err := h.Service.GetTask(r.Context(), taskID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) GetMyTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tasks, err := h.Service.ListOwned(r.Context(), user.ID, h.ParseLimit(r, 50, 500))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if tasks == nil {
		tasks = []*Task{}
	}

	h.WriteJSON(w, http.StatusOK, TasksResponse{Tasks: tasks})
}

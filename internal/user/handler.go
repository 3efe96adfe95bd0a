package user

import (
	"context"
	"net/http"

	"github.com/frahmantamala/performance-tracker/internal/auth"
	coreUser "github.com/frahmantamala/performance-tracker/internal/core/user"
	"github.com/frahmantamala/performance-tracker/internal/transport"
)

type ServiceAPI interface {
	GetByID(ctx context.Context, userID int64) (*User, error)
	GetReports(ctx context.Context, managerID int64, recursive bool) ([]*User, error)
	IsReportOf(ctx context.Context, managerID, userID int64) (bool, error)
	UpdateRole(ctx context.Context, actorID int64, actorRole coreUser.Role, userID int64, dto UpdateRoleDTO) (*User, error)
	SetManager(ctx context.Context, actorID int64, actorRole coreUser.Role, userID int64, managerID *int64) (*User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	u, err := h.Service.GetByID(r.Context(), principal.ID)
	if err != nil {
		h.Logger.Error("GetCurrentUser: service GetByID failed", "user_id", principal.ID, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// GetReports handles GET /users/{id}/reports. Managers may only list their
// own reporting line.
func (h *Handler) GetReports(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	managerID, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if principal.Role == coreUser.RoleManager && principal.ID != managerID {
		inLine, err := h.Service.IsReportOf(r.Context(), principal.ID, managerID)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		if !inLine {
			h.WriteError(w, http.StatusForbidden, "forbidden")
			return
		}
	}

	recursive := r.URL.Query().Get("recursive") != "false"
	reports, err := h.Service.GetReports(r.Context(), managerID, recursive)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if reports == nil {
		reports = []*User{}
	}

	h.WriteJSON(w, http.StatusOK, UsersResponse{Users: reports})
}

// UpdateRole handles PATCH /users/{id}/role
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	userID, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto UpdateRoleDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.UpdateRole(r.Context(), principal.ID, principal.Role, userID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// UpdateManager handles PATCH /users/{id}/manager
func (h *Handler) UpdateManager(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	userID, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto SetManagerDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.SetManager(r.Context(), principal.ID, principal.Role, userID, dto.ManagerID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

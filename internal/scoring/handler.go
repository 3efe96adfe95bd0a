package scoring

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/performance-tracker/internal"
	"github.com/frahmantamala/performance-tracker/internal/auth"
	coreUser "github.com/frahmantamala/performance-tracker/internal/core/user"
	"github.com/frahmantamala/performance-tracker/internal/transport"
)

type ServiceAPI interface {
	CalculateUserScore(ctx context.Context, userID int64, asOf time.Time) (*Result, error)
	AuthorizeView(ctx context.Context, viewerID int64, viewerRole coreUser.Role, userID int64) error
	GetUserScores(ctx context.Context, userID int64, limit int) ([]*Score, error)
	Board(ctx context.Context, date time.Time) ([]BoardEntry, error)
	Now() time.Time
}

// JobTrigger starts a named background job unless it is already running.
type JobTrigger interface {
	Trigger(name string) (bool, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Trigger JobTrigger
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, trigger JobTrigger) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Trigger:     trigger,
	}
}

func (h *Handler) GetMyScores(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	scores, err := h.Service.GetUserScores(r.Context(), user.ID, h.ParseLimit(r, 30, 365))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"scores": ToScoreResponses(scores),
	})
}

func (h *Handler) GetUserScores(w http.ResponseWriter, r *http.Request) {
	user, userID, ok := h.authorizedTarget(w, r)
	if !ok {
		return
	}

	scores, err := h.Service.GetUserScores(r.Context(), userID, h.ParseLimit(r, 30, 365))
	if err != nil {
		h.Logger.Error("GetUserScores: service error", "error", err, "viewer_id", user.ID, "user_id", userID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"scores": ToScoreResponses(scores),
	})
}

// PreviewUserScore computes the score with the current weights without
// touching the stored daily snapshot.
func (h *Handler) PreviewUserScore(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := h.authorizedTarget(w, r)
	if !ok {
		return
	}

	asOf, err := h.ParseDateQuery(r, "date", h.Service.Now())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	result, err := h.Service.CalculateUserScore(r.Context(), userID, asOf)
	if err != nil {
		h.Logger.Error("PreviewUserScore: calculation failed", "error", err, "user_id", userID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ResultToResponse(result))
}

func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	date, err := h.ParseDateQuery(r, "date", h.Service.Now())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	entries, err := h.Service.Board(r.Context(), date)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, BoardResponse{
		Date:    date.Format(dateLayout),
		Entries: entries,
	})
}

func (h *Handler) TriggerGeneration(w http.ResponseWriter, r *http.Request) {
	if h.Trigger == nil {
		h.WriteError(w, http.StatusServiceUnavailable, "scheduler is not available")
		return
	}

	started, err := h.Trigger.Trigger(GenerateScoresJob)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if !started {
		h.HandleServiceError(w, internal.NewConflictError("score generation is already running", internal.ErrCodeJobRunning))
		return
	}

	h.WriteJSON(w, http.StatusAccepted, TriggerResponse{Job: GenerateScoresJob, Status: "started"})
}

func (h *Handler) authorizedTarget(w http.ResponseWriter, r *http.Request) (*auth.User, int64, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return nil, 0, false
	}

	userID, err := h.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return nil, 0, false
	}

	if err := h.Service.AuthorizeView(r.Context(), user.ID, user.Role, userID); err != nil {
		h.HandleServiceError(w, err)
		return nil, 0, false
	}
	return user, userID, true
}

// Package handler exposes the compliance action endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"saathi/internal/compliance/models"
	"saathi/internal/compliance/service"
	id "saathi/pkg/domain"
	dErrors "saathi/pkg/domain-errors"
	"saathi/pkg/platform/httputil"
	"saathi/pkg/requestcontext"
)

// Service defines the compliance operations the handler needs.
type Service interface {
	ListActions(ctx context.Context, userID id.UserID) ([]service.Action, error)
	MarkCompleted(ctx context.Context, statusID id.StatusID, userID id.UserID) (*models.Status, error)
	MarkNotApplicable(ctx context.Context, statusID id.StatusID, userID id.UserID) (*models.Status, error)
	Score(ctx context.Context, userID id.UserID) (service.Report, error)
}

// Handler handles compliance action endpoints. All routes require an
// authenticated user in the request context.
type Handler struct {
	logger     *slog.Logger
	compliance Service
}

// New creates a compliance Handler.
func New(compliance Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, compliance: compliance}
}

// Register mounts the action routes on an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/actions/today", h.handleListActions)
	r.Post("/actions/{id}/complete", h.handleComplete)
	r.Post("/actions/{id}/not-applicable", h.handleNotApplicable)
	r.Get("/score", h.handleScore)
}

type actionsResponse struct {
	Actions []service.Action `json:"actions"`
	Total   int              `json:"total"`
}

func (h *Handler) handleListActions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsZero() {
		h.contextError(ctx, w)
		return
	}

	actions, err := h.compliance.ListActions(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list actions",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, actionsResponse{Actions: actions, Total: len(actions)})
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.compliance.MarkCompleted)
}

func (h *Handler) handleNotApplicable(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.compliance.MarkNotApplicable)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, id.StatusID, id.UserID) (*models.Status, error)) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsZero() {
		h.contextError(ctx, w)
		return
	}

	statusID, err := id.ParseStatusID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	status, err := op(ctx, statusID, userID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "status transition failed",
				"request_id", requestcontext.RequestID(ctx),
				"status_id", statusID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsZero() {
		h.contextError(ctx, w)
		return
	}

	report, err := h.compliance.Score(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to compute score",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) contextError(ctx context.Context, w http.ResponseWriter) {
	h.logger.ErrorContext(ctx, "user ID missing from context despite auth middleware",
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
}

// Package handler exposes the dashboard endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"saathi/internal/dashboard/service"
	id "saathi/pkg/domain"
	dErrors "saathi/pkg/domain-errors"
	"saathi/pkg/platform/httputil"
	"saathi/pkg/requestcontext"
)

// Service defines the dashboard operations the handler needs.
type Service interface {
	Summarize(ctx context.Context, userID id.UserID) (*service.Summary, error)
}

// Handler handles the dashboard endpoint.
type Handler struct {
	logger    *slog.Logger
	dashboard Service
}

// New creates a dashboard Handler.
func New(dashboard Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, dashboard: dashboard}
}

// Register mounts the dashboard route on an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/dashboard", h.handleSummary)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsZero() {
		h.logger.ErrorContext(ctx, "user ID missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	summary, err := h.dashboard.Summarize(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build dashboard summary",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

// Package handler exposes the onboarding endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"saathi/internal/compliance/models"
	"saathi/internal/onboarding/service"
	id "saathi/pkg/domain"
	dErrors "saathi/pkg/domain-errors"
	"saathi/pkg/platform/httputil"
	"saathi/pkg/requestcontext"
)

// Service defines the onboarding operations the handler needs.
type Service interface {
	Submit(ctx context.Context, userID id.UserID, input service.SubmitInput) (*models.UserProfile, error)
	Status(ctx context.Context, userID id.UserID) (*models.UserProfile, bool, error)
}

// Handler handles onboarding endpoints.
type Handler struct {
	logger     *slog.Logger
	onboarding Service
}

// New creates an onboarding Handler.
func New(onboarding Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, onboarding: onboarding}
}

// Register mounts the onboarding routes on an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/onboarding/status", h.handleStatus)
	r.Post("/onboarding/submit", h.handleSubmit)
}

type submitRequest struct {
	WorkType      string `json:"work_type"`
	MonthlyIncome string `json:"monthly_income"`
	GSTRegistered *bool  `json:"is_gst_registered"`
	State         string `json:"state"`
	City          string `json:"city"`
}

type submitResponse struct {
	Success bool                `json:"success"`
	Profile *models.UserProfile `json:"profile"`
}

type statusResponse struct {
	Completed bool                `json:"completed"`
	Profile   *models.UserProfile `json:"profile"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsZero() {
		h.contextError(ctx, w)
		return
	}

	profile, completed, err := h.onboarding.Status(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load onboarding status",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statusResponse{Completed: completed, Profile: profile})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsZero() {
		h.contextError(ctx, w)
		return
	}

	req, err := httputil.Decode[submitRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	profile, err := h.onboarding.Submit(ctx, userID, service.SubmitInput{
		WorkType:      req.WorkType,
		MonthlyIncome: req.MonthlyIncome,
		GSTRegistered: req.GSTRegistered,
		State:         req.State,
		City:          req.City,
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "onboarding submission failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, submitResponse{Success: true, Profile: profile})
}

func (h *Handler) contextError(ctx context.Context, w http.ResponseWriter) {
	h.logger.ErrorContext(ctx, "user ID missing from context despite auth middleware",
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
}

// Package handler exposes the public auth endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"saathi/internal/auth/models"
	id "saathi/pkg/domain"
	dErrors "saathi/pkg/domain-errors"
	"saathi/pkg/platform/httputil"
	"saathi/pkg/requestcontext"
)

// Service defines the auth operations the handler needs.
type Service interface {
	Register(ctx context.Context, email, name, password string) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
}

// UserReader loads the authenticated user's own record.
type UserReader interface {
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
}

// Handler handles registration, login, and the "who am I" lookup.
type Handler struct {
	logger *slog.Logger
	auth   Service
	users  UserReader
}

// New creates an auth Handler.
func New(auth Service, users UserReader, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, auth: auth, users: users}
}

// RegisterPublic mounts the unauthenticated routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
}

// RegisterAuthenticated mounts routes that require a valid token.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Get("/auth/me", h.handleMe)
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.Decode[registerRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, token, err := h.auth.Register(ctx, req.Email, req.Name, req.Password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "registration failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, tokenResponse{Token: token, User: user})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.Decode[loginRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, token, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "login failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tokenResponse{Token: token, User: user})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	user, err := h.users.FindByID(ctx, userID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "user not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

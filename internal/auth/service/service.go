// Package service implements account registration and login.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"saathi/internal/auth/models"
	"saathi/internal/auth/secrets"
	"saathi/internal/platform/metrics"
	emailutil "saathi/pkg/email"
	id "saathi/pkg/domain"
	dErrors "saathi/pkg/domain-errors"
	"saathi/pkg/platform/audit"
	"saathi/pkg/platform/sentinel"
	"saathi/pkg/requestcontext"
)

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// TokenIssuer mints signed access tokens.
type TokenIssuer interface {
	GenerateAccessToken(userID id.UserID, expiresIn time.Duration) (string, error)
}

// AuditPublisher records auth events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service handles registration and login.
type Service struct {
	users    UserStore
	tokens   TokenIssuer
	tokenTTL time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	audit    AuditPublisher
}

// Option configures optional service dependencies.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches application metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAuditPublisher attaches an audit event publisher.
func WithAuditPublisher(pub AuditPublisher) Option {
	return func(s *Service) { s.audit = pub }
}

// New constructs the auth service.
func New(users UserStore, tokens TokenIssuer, tokenTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		users:    users,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account and returns it with a fresh access token.
// A duplicate email surfaces as a conflict.
func (s *Service) Register(ctx context.Context, email, name, password string) (*models.User, string, error) {
	if err := models.ValidateCredentials(email, password); err != nil {
		return nil, "", err
	}

	hash, err := secrets.Hash(password)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	if strings.TrimSpace(name) == "" {
		first, last := emailutil.DeriveNameFromEmail(email)
		name = first + " " + last
	}

	now := requestcontext.Now(ctx)
	user := models.NewUser(id.NewUserID(), email, name, hash, now)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, "", dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, s.tokenTTL)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.metrics.IncrementUsersRegistered()
	s.emit(ctx, audit.Event{
		Action:    audit.EventUserRegistered,
		UserID:    user.ID,
		SubjectID: user.Email,
		RequestID: requestcontext.RequestID(ctx),
	})
	s.logger.InfoContext(ctx, "user registered",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", user.ID,
	)
	return user, token, nil
}

// Login verifies credentials and returns the user with a fresh access token.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.authFailed(ctx, email, "unknown_email")
			return nil, "", dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	if err := secrets.Verify(password, user.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			s.authFailed(ctx, email, "invalid_password")
			return nil, "", dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, s.tokenTTL)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return user, token, nil
}

func (s *Service) authFailed(ctx context.Context, email, reason string) {
	s.emit(ctx, audit.Event{
		Action:    audit.EventAuthFailed,
		SubjectID: email,
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	})
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emission failed",
			"action", event.Action, "error", err)
	}
}

// Package service implements onboarding: collecting the business facts the
// compliance engine matches rules against, and triggering the first status
// synchronization once a profile exists.
package service

import (
	"context"
	"errors"
	"log/slog"

	"saathi/internal/compliance/models"
	id "saathi/pkg/domain"
	dErrors "saathi/pkg/domain-errors"
	"saathi/pkg/platform/audit"
	"saathi/pkg/platform/sentinel"
	"saathi/pkg/requestcontext"
)

// ProfileStore persists onboarding profiles.
type ProfileStore interface {
	FindByUser(ctx context.Context, userID id.UserID) (*models.UserProfile, error)
	Upsert(ctx context.Context, profile *models.UserProfile) error
}

// ComplianceSyncer materializes status rows after a profile change.
type ComplianceSyncer interface {
	Sync(ctx context.Context, userID id.UserID) error
}

// AuditPublisher records onboarding events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service handles onboarding submission and status lookups.
type Service struct {
	profiles   ProfileStore
	compliance ComplianceSyncer
	logger     *slog.Logger
	audit      AuditPublisher
}

// Option configures optional service dependencies.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithAuditPublisher attaches an audit event publisher.
func WithAuditPublisher(pub AuditPublisher) Option {
	return func(s *Service) { s.audit = pub }
}

// New constructs the onboarding service.
func New(profiles ProfileStore, compliance ComplianceSyncer, opts ...Option) *Service {
	s := &Service{profiles: profiles, compliance: compliance, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitInput carries the onboarding answers. GSTRegistered is a pointer so
// an absent flag is distinguishable from an explicit false.
type SubmitInput struct {
	WorkType      string
	MonthlyIncome string
	GSTRegistered *bool
	State         string
	City          string
}

// Submit validates the answers, upserts the profile, and synchronizes
// compliance statuses. Resubmission overwrites the previous answers; rows
// already materialized keep their original due dates.
//
// Submission succeeds only if synchronization does: a profile without its
// status rows would show an empty dashboard until the next sync.
func (s *Service) Submit(ctx context.Context, userID id.UserID, input SubmitInput) (*models.UserProfile, error) {
	if input.GSTRegistered == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "gst registration flag is required")
	}

	now := requestcontext.Now(ctx)
	profile, err := models.NewUserProfile(userID, input.WorkType, input.MonthlyIncome, *input.GSTRegistered, input.State, input.City, now)
	if err != nil {
		return nil, err
	}

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save profile")
	}

	if err := s.compliance.Sync(ctx, userID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to synchronize compliance statuses")
	}

	s.emit(ctx, userID)
	s.logger.InfoContext(ctx, "onboarding submitted",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID,
		"work_type", profile.WorkType,
		"state", profile.State,
	)
	return profile, nil
}

// Status returns the user's profile and whether onboarding is complete.
// A missing profile is the "not onboarded" state, not an error.
func (s *Service) Status(ctx context.Context, userID id.UserID) (*models.UserProfile, bool, error) {
	profile, err := s.profiles.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	return profile, profile.OnboardingCompleted, nil
}

func (s *Service) emit(ctx context.Context, userID id.UserID) {
	if s.audit == nil {
		return
	}
	event := audit.Event{
		Action:    audit.EventProfileSubmitted,
		UserID:    userID,
		SubjectID: userID.String(),
		RequestID: requestcontext.RequestID(ctx),
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emission failed",
			"action", event.Action, "user_id", userID, "error", err)
	}
}

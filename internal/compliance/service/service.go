// Package service orchestrates the compliance core: deciding which rules
// apply to a user, materializing status rows, scoring compliance health, and
// guarding status transitions.
package service

import (
	"context"
	"errors"
	"log/slog"

	"saathi/internal/compliance/engine"
	"saathi/internal/compliance/metrics"
	"saathi/internal/compliance/models"
	id "saathi/pkg/domain"
	dErrors "saathi/pkg/domain-errors"
	"saathi/pkg/platform/audit"
	"saathi/pkg/platform/sentinel"
	"saathi/pkg/requestcontext"
)

// RuleStore supplies the shared, read-only rule catalog.
type RuleStore interface {
	List(ctx context.Context) ([]*models.Rule, error)
	FindByID(ctx context.Context, ruleID id.RuleID) (*models.Rule, error)
}

// ProfileStore supplies user profiles; the engine only reads them.
type ProfileStore interface {
	FindByUser(ctx context.Context, userID id.UserID) (*models.UserProfile, error)
}

// StatusStore persists per-user status rows. Create must enforce the
// (user, rule) uniqueness constraint and return sentinel.ErrConflict for the
// losing writer of a concurrent synchronization race.
type StatusStore interface {
	Create(ctx context.Context, status *models.Status) error
	Update(ctx context.Context, status *models.Status) error
	FindByID(ctx context.Context, statusID id.StatusID) (*models.Status, error)
	FindByUserAndRule(ctx context.Context, userID id.UserID, ruleID id.RuleID) (*models.Status, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Status, error)
}

// ScoreCache is an optional read-through cache for confidence reports.
// Implementations must treat entries as disposable; the service tolerates
// every cache failure.
type ScoreCache interface {
	Get(ctx context.Context, userID id.UserID) (Report, bool, error)
	Set(ctx context.Context, userID id.UserID, report Report) error
	Invalidate(ctx context.Context, userID id.UserID) error
}

// AuditPublisher records compliance-significant events. Emission failures
// never fail the user operation.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service exposes the compliance engine to transport and collaborator
// modules.
type Service struct {
	rules    RuleStore
	profiles ProfileStore
	statuses StatusStore
	logger   *slog.Logger
	metrics  *metrics.Metrics
	cache    ScoreCache
	audit    AuditPublisher
}

// Option configures optional service dependencies.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches compliance metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithScoreCache attaches a confidence report cache.
func WithScoreCache(cache ScoreCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithAuditPublisher attaches an audit event publisher.
func WithAuditPublisher(pub AuditPublisher) Option {
	return func(s *Service) { s.audit = pub }
}

// New constructs the compliance service with its required stores.
func New(rules RuleStore, profiles ProfileStore, statuses StatusStore, opts ...Option) *Service {
	s := &Service{
		rules:    rules,
		profiles: profiles,
		statuses: statuses,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApplicableRules returns the rules that currently apply to the user.
// A missing or incomplete profile yields an empty set: that is the
// "not onboarded" state, signaled separately by the onboarding module, not
// an error here.
func (s *Service) ApplicableRules(ctx context.Context, userID id.UserID) ([]*models.Rule, error) {
	profile, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil || !profile.OnboardingCompleted {
		return nil, nil
	}
	allRules, err := s.rules.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load rule catalog")
	}
	return engine.Applicable(profile, allRules), nil
}

// Sync reconciles the user's status rows against the currently applicable
// rules, creating a pending row with a computed due date for every applicable
// rule that has none. Existing rows are never touched: due dates are not
// recalculated and rows for no-longer-applicable rules are retained.
//
// Sync is idempotent. Concurrent calls for the same user may race on the
// existence check; the storage uniqueness constraint resolves the race and
// the losing create is absorbed as a no-op.
func (s *Service) Sync(ctx context.Context, userID id.UserID) error {
	applicable, err := s.ApplicableRules(ctx, userID)
	if err != nil {
		return err
	}

	now := requestcontext.Now(ctx)
	created := 0
	for _, rule := range applicable {
		_, err := s.statuses.FindByUserAndRule(ctx, userID, rule.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up compliance status")
		}

		status := models.NewPendingStatus(id.NewStatusID(), userID, rule.ID, engine.NextDueDate(rule, now), now)
		if err := s.statuses.Create(ctx, status); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				// Lost a concurrent sync race; the row exists, which is all
				// that matters.
				continue
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create compliance status")
		}
		created++
		s.emit(ctx, audit.EventStatusCreated, userID, rule.Code, status.ID)
	}

	s.metrics.IncrementSyncs()
	s.metrics.IncrementStatusesCreated(created)
	// A resubmitted profile can change the applicable set without creating
	// rows, so the cached score is stale either way.
	s.invalidateScore(ctx, userID)
	s.logger.InfoContext(ctx, "compliance statuses synchronized",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID,
		"applicable", len(applicable),
		"created", created,
	)
	return nil
}

// MarkCompleted transitions a status the user owns to completed and stamps
// the completion date.
func (s *Service) MarkCompleted(ctx context.Context, statusID id.StatusID, userID id.UserID) (*models.Status, error) {
	return s.transition(ctx, statusID, userID, audit.EventStatusCompleted,
		func(status *models.Status) error {
			return status.Complete(requestcontext.Now(ctx))
		})
}

// MarkNotApplicable transitions a status the user owns to not_applicable.
// CompletedDate stays untouched.
func (s *Service) MarkNotApplicable(ctx context.Context, statusID id.StatusID, userID id.UserID) (*models.Status, error) {
	return s.transition(ctx, statusID, userID, audit.EventStatusExcused,
		func(status *models.Status) error {
			return status.Excuse(requestcontext.Now(ctx))
		})
}

func (s *Service) transition(ctx context.Context, statusID id.StatusID, userID id.UserID, event audit.Action, apply func(*models.Status) error) (*models.Status, error) {
	status, err := s.statuses.FindByID(ctx, statusID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "action not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up compliance status")
	}
	// Ownership check: a foreign status is indistinguishable from a missing
	// one so callers can't probe other users' rows.
	if status.UserID != userID {
		return nil, dErrors.New(dErrors.CodeNotFound, "action not found")
	}

	if err := apply(status); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeConflict, "action is already resolved")
		}
		return nil, err
	}

	if err := s.statuses.Update(ctx, status); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update compliance status")
	}

	s.metrics.RecordTransition(string(status.State))
	s.invalidateScore(ctx, userID)
	s.emit(ctx, event, userID, "", status.ID)
	return status, nil
}

// profile loads the user's profile, mapping "no profile yet" to nil.
func (s *Service) profile(ctx context.Context, userID id.UserID) (*models.UserProfile, error) {
	profile, err := s.profiles.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	return profile, nil
}

func (s *Service) invalidateScore(ctx context.Context, userID id.UserID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "score cache invalidation failed",
			"user_id", userID, "error", err)
	}
}

func (s *Service) emit(ctx context.Context, action audit.Action, userID id.UserID, ruleCode string, statusID id.StatusID) {
	if s.audit == nil {
		return
	}
	event := audit.Event{
		Action:    action,
		UserID:    userID,
		RuleCode:  ruleCode,
		SubjectID: statusID.String(),
		RequestID: requestcontext.RequestID(ctx),
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emission failed",
			"action", action, "user_id", userID, "error", err)
	}
}

// Package service assembles the dashboard summary: one payload carrying the
// confidence score, the most urgent deadline, and the action counts the home
// screen renders.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"saathi/internal/compliance/models"
	compservice "saathi/internal/compliance/service"
	id "saathi/pkg/domain"
	dErrors "saathi/pkg/domain-errors"
	"saathi/pkg/platform/sentinel"
	"saathi/pkg/requestcontext"
)

// ComplianceService supplies the compliance reads the summary aggregates.
type ComplianceService interface {
	Score(ctx context.Context, userID id.UserID) (compservice.Report, error)
	ListActions(ctx context.Context, userID id.UserID) ([]compservice.Action, error)
}

// ProfileStore checks whether the user has completed onboarding.
type ProfileStore interface {
	FindByUser(ctx context.Context, userID id.UserID) (*models.UserProfile, error)
}

// Service builds dashboard summaries.
type Service struct {
	profiles   ProfileStore
	compliance ComplianceService
	logger     *slog.Logger
}

// New constructs the dashboard service.
func New(profiles ProfileStore, compliance ComplianceService, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{profiles: profiles, compliance: compliance, logger: logger}
}

// UpcomingDeadline is the next pending obligation whose due date lies ahead.
type UpcomingDeadline struct {
	ID        id.StatusID `json:"id"`
	Name      string      `json:"name"`
	DueDate   time.Time   `json:"due_date"`
	DaysUntil int         `json:"days_until"`
}

// Summary is the dashboard payload. When OnboardingRequired is set only
// Message carries meaning; everything else is zero.
type Summary struct {
	OnboardingRequired   bool                  `json:"onboarding_required,omitempty"`
	Message              string                `json:"message,omitempty"`
	ConfidenceScore      int                   `json:"confidence_score"`
	RiskLevel            compservice.RiskLevel `json:"risk_level,omitempty"`
	StatusMessage        string                `json:"status_message,omitempty"`
	PendingCount         int                   `json:"pending_count"`
	Upcoming             *UpcomingDeadline     `json:"upcoming"`
	TotalCompliances     int                   `json:"total_compliances"`
	CompletedCompliances int                   `json:"completed_compliances"`
}

// Summarize builds the dashboard summary for one user.
//
// Pending actions count toward PendingCount only once their due date has
// arrived; a pending action with a future due date surfaces through Upcoming
// instead. The score and the action list are independent reads and are
// gathered concurrently.
func (s *Service) Summarize(ctx context.Context, userID id.UserID) (*Summary, error) {
	profile, err := s.profiles.FindByUser(ctx, userID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	if profile == nil || !profile.OnboardingCompleted {
		return &Summary{
			OnboardingRequired: true,
			Message:            "Please complete onboarding first",
		}, nil
	}

	var (
		report  compservice.Report
		actions []compservice.Action
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		report, err = s.compliance.Score(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		actions, err = s.compliance.ListActions(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	summary := &Summary{
		ConfidenceScore:  report.Score,
		RiskLevel:        report.Risk,
		TotalCompliances: report.TotalApplicable,
	}
	for _, action := range actions {
		switch {
		case action.State == models.StatusCompleted:
			summary.CompletedCompliances++
		case action.State != models.StatusPending || action.DueDate == nil:
			// not_applicable and undated rows contribute nothing
		case action.DueDate.After(now):
			if summary.Upcoming == nil {
				summary.Upcoming = &UpcomingDeadline{
					ID:        action.ID,
					Name:      action.Name,
					DueDate:   *action.DueDate,
					DaysUntil: daysUntil(*action.DueDate, now),
				}
			}
		default:
			summary.PendingCount++
		}
	}
	summary.StatusMessage = statusMessage(summary.PendingCount, summary.Upcoming)
	return summary, nil
}

// statusMessage mirrors the home-screen copy: due work first, then the next
// deadline, then the all-clear.
func statusMessage(pendingCount int, upcoming *UpcomingDeadline) string {
	switch {
	case pendingCount > 0:
		return fmt.Sprintf("%d %s pending", pendingCount, plural("action", pendingCount))
	case upcoming != nil:
		return fmt.Sprintf("Next deadline in %d %s", upcoming.DaysUntil, plural("day", upcoming.DaysUntil))
	default:
		return "You're compliant today!"
	}
}

func plural(noun string, n int) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
}

// daysUntil rounds the remaining time up to whole days, so a deadline 36
// hours out reads as two days.
func daysUntil(due, now time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}

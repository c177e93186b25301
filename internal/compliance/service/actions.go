package service

import (
	"context"
	"errors"
	"math"
	"time"

	"saathi/internal/compliance/models"
	id "saathi/pkg/domain"
	dErrors "saathi/pkg/domain-errors"
	"saathi/pkg/platform/sentinel"
	"saathi/pkg/requestcontext"
)

// Action is a status row joined with its rule, annotated with urgency
// relative to the request date.
type Action struct {
	ID            id.StatusID        `json:"id"`
	RuleID        id.RuleID          `json:"rule_id"`
	RuleCode      string             `json:"rule_code"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	Category      string             `json:"category"`
	Penalty       string             `json:"penalty,omitempty"`
	Frequency     models.Frequency   `json:"frequency"`
	State         models.StatusState `json:"state"`
	DueDate       *time.Time         `json:"due_date,omitempty"`
	CompletedDate *time.Time         `json:"completed_date,omitempty"`
	IsOverdue     bool               `json:"is_overdue"`
	IsDueToday    bool               `json:"is_due_today"`
	DaysUntilDue  *int               `json:"days_until_due,omitempty"`
}

// ListActions returns every status row the user has, joined with rule
// details and ordered by due date ascending with undated rows last. Rows
// whose rule no longer exists in the catalog are skipped.
//
// Urgency flags are computed against midnight of the request date, so a task
// due later today is "due today", not overdue.
func (s *Service) ListActions(ctx context.Context, userID id.UserID) ([]Action, error) {
	statuses, err := s.statuses.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list compliance statuses")
	}

	now := requestcontext.Now(ctx)
	today := midnight(now)

	actions := make([]Action, 0, len(statuses))
	for _, status := range statuses {
		rule, err := s.rules.FindByID(ctx, status.RuleID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				s.logger.WarnContext(ctx, "status references missing rule",
					"status_id", status.ID, "rule_id", status.RuleID)
				continue
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load rule")
		}
		actions = append(actions, buildAction(status, rule, today))
	}
	return actions, nil
}

func buildAction(status *models.Status, rule *models.Rule, today time.Time) Action {
	action := Action{
		ID:            status.ID,
		RuleID:        rule.ID,
		RuleCode:      rule.Code,
		Name:          rule.Name,
		Description:   rule.Description,
		Category:      rule.Category,
		Penalty:       rule.PenaltyDescription,
		Frequency:     rule.Frequency,
		State:         status.State,
		DueDate:       status.DueDate,
		CompletedDate: status.CompletedDate,
	}
	if status.DueDate == nil || status.State.Terminal() {
		return action
	}

	due := *status.DueDate
	action.IsOverdue = due.Before(today)
	y1, m1, d1 := due.Date()
	y2, m2, d2 := today.Date()
	action.IsDueToday = y1 == y2 && m1 == m2 && d1 == d2
	days := daysUntil(due, today)
	action.DaysUntilDue = &days
	return action
}

// daysUntil counts calendar days from today's midnight to the due instant,
// rounding partial days up. Past-due dates yield negative values.
func daysUntil(due, today time.Time) int {
	return int(math.Ceil(due.Sub(today).Hours() / 24))
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

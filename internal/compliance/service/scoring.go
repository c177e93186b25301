package service

import (
	"context"
	"math"
	"time"

	"saathi/internal/compliance/models"
	id "saathi/pkg/domain"
	dErrors "saathi/pkg/domain-errors"
	"saathi/pkg/requestcontext"
)

// RiskLevel buckets a confidence score for presentation.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskFor maps a confidence score to its risk tier.
func RiskFor(score int) RiskLevel {
	switch {
	case score >= 75:
		return RiskLow
	case score >= 50:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// Report is the aggregated compliance health of one user.
type Report struct {
	Score           int       `json:"score"`
	Risk            RiskLevel `json:"risk_level"`
	TotalApplicable int       `json:"total_applicable"`
}

const (
	fullScore           = 100
	pendingScore        = 70
	overduePenaltyPerDay = 5
	overduePenaltyCap    = 50
)

// Score computes the user's confidence report from the statuses of the rules
// that currently apply. Status rows for no-longer-applicable rules are
// ignored; an applicable rule whose row has not been synchronized yet reads
// as pending without a due date. A user with no applicable rules scores a
// perfect 100.
//
// The report is a pure function of stored state and the request time, so it
// is served through the cache when one is configured.
func (s *Service) Score(ctx context.Context, userID id.UserID) (Report, error) {
	if s.cache != nil {
		report, ok, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.logger.WarnContext(ctx, "score cache read failed", "user_id", userID, "error", err)
		} else if ok {
			return report, nil
		}
	}

	start := time.Now()
	report, err := s.computeScore(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	s.metrics.ObserveScore(report.Score, start)

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, report); err != nil {
			s.logger.WarnContext(ctx, "score cache write failed", "user_id", userID, "error", err)
		}
	}
	return report, nil
}

func (s *Service) computeScore(ctx context.Context, userID id.UserID) (Report, error) {
	applicable, err := s.ApplicableRules(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	if len(applicable) == 0 {
		return Report{Score: fullScore, Risk: RiskLow}, nil
	}

	statuses, err := s.statuses.ListByUser(ctx, userID)
	if err != nil {
		return Report{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list compliance statuses")
	}
	byRule := make(map[id.RuleID]*models.Status, len(statuses))
	for _, status := range statuses {
		byRule[status.RuleID] = status
	}

	now := requestcontext.Now(ctx)
	total := 0
	for _, rule := range applicable {
		status, ok := byRule[rule.ID]
		if !ok {
			// Mid-sync: the row does not exist yet, so it grades as a
			// pending obligation with no due date.
			total += pendingScore
			continue
		}
		total += statusScore(status, now)
	}

	score := int(math.Round(float64(total) / float64(len(applicable))))
	return Report{Score: score, Risk: RiskFor(score), TotalApplicable: len(applicable)}, nil
}

// statusScore grades one status row at the given instant.
func statusScore(status *models.Status, now time.Time) int {
	if status.State.Terminal() {
		return fullScore
	}
	if status.Overdue(now) {
		penalty := daysOverdue(*status.DueDate, now) * overduePenaltyPerDay
		if penalty > overduePenaltyCap {
			penalty = overduePenaltyCap
		}
		return fullScore - penalty
	}
	return pendingScore
}

// daysOverdue counts whole days elapsed since the due date; a deadline missed
// by less than 24 hours counts as zero days.
func daysOverdue(due, now time.Time) int {
	if !now.After(due) {
		return 0
	}
	return int(now.Sub(due).Hours() / 24)
}

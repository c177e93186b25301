package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"saathi/internal/compliance/models"
	"saathi/internal/compliance/service"
	profilestore "saathi/internal/compliance/store/profile"
	rulestore "saathi/internal/compliance/store/rule"
	statusstore "saathi/internal/compliance/store/status"
	id "saathi/pkg/domain"
	dErrors "saathi/pkg/domain-errors"
	"saathi/pkg/requestcontext"
)

type ServiceTestSuite struct {
	suite.Suite
	rules    *rulestore.InMemory
	profiles *profilestore.InMemory
	statuses *statusstore.InMemory
	svc      *service.Service

	userID id.UserID
	now    time.Time
	ctx    context.Context
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (s *ServiceTestSuite) SetupTest() {
	s.rules = rulestore.NewInMemory()
	s.profiles = profilestore.NewInMemory()
	s.statuses = statusstore.NewInMemory()
	s.svc = service.New(s.rules, s.profiles, s.statuses)

	s.userID = id.NewUserID()
	s.now = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *ServiceTestSuite) at(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *ServiceTestSuite) seedProfile(workType, income string, gst bool, state string) {
	profile, err := models.NewUserProfile(s.userID, workType, income, gst, state, "", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.profiles.Upsert(s.ctx, profile))
}

func (s *ServiceTestSuite) seedRule(code string, frequency models.Frequency, day int) *models.Rule {
	rule := &models.Rule{
		ID:          id.NewRuleID(),
		Code:        code,
		Name:        code,
		Category:    "tax",
		Frequency:   frequency,
		DeadlineDay: &day,
	}
	s.Require().NoError(s.rules.UpsertByCode(s.ctx, rule))
	return rule
}

func (s *ServiceTestSuite) statusFor(ruleID id.RuleID) *models.Status {
	status, err := s.statuses.FindByUserAndRule(s.ctx, s.userID, ruleID)
	s.Require().NoError(err)
	return status
}

// --- Sync ---

func (s *ServiceTestSuite) TestSyncCreatesPendingStatusesWithDueDates() {
	s.seedProfile("freelancer", "50k-1L", true, "Karnataka")
	rule := s.seedRule("GST_MONTHLY", models.FrequencyMonthly, 20)

	s.Require().NoError(s.svc.Sync(s.ctx, s.userID))

	status := s.statusFor(rule.ID)
	s.Equal(models.StatusPending, status.State)
	s.Require().NotNil(status.DueDate)
	s.Equal(time.Date(2024, 4, 20, 12, 0, 0, 0, time.UTC), *status.DueDate)
	s.Nil(status.CompletedDate)
}

func (s *ServiceTestSuite) TestSyncIsIdempotent() {
	s.seedProfile("freelancer", "50k-1L", true, "Karnataka")
	rule := s.seedRule("GST_MONTHLY", models.FrequencyMonthly, 20)

	s.Require().NoError(s.svc.Sync(s.ctx, s.userID))
	first := s.statusFor(rule.ID)

	// Later sync must not touch the existing row or recalculate its due date.
	later := s.at(s.now.AddDate(0, 2, 0))
	s.Require().NoError(s.svc.Sync(later, s.userID))

	second := s.statusFor(rule.ID)
	s.Equal(first.ID, second.ID)
	s.Equal(*first.DueDate, *second.DueDate)

	all, err := s.statuses.ListByUser(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *ServiceTestSuite) TestSyncWithoutProfileIsNoOp() {
	s.seedRule("GST_MONTHLY", models.FrequencyMonthly, 20)

	s.Require().NoError(s.svc.Sync(s.ctx, s.userID))

	all, err := s.statuses.ListByUser(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *ServiceTestSuite) TestSyncSkipsInapplicableRules() {
	s.seedProfile("freelancer", "50k-1L", false, "Karnataka")
	gstRule := s.seedRule("GST_MONTHLY", models.FrequencyMonthly, 20)
	requires := true
	gstRule.RequiresGST = &requires
	s.Require().NoError(s.rules.UpsertByCode(s.ctx, gstRule))
	open := s.seedRule("SHOP_ACT", models.FrequencyAnnual, 31)

	s.Require().NoError(s.svc.Sync(s.ctx, s.userID))

	all, err := s.statuses.ListByUser(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal(open.ID, all[0].RuleID)
}

func (s *ServiceTestSuite) TestSyncRetainsRowsForNoLongerApplicableRules() {
	s.seedProfile("freelancer", "50k-1L", false, "Karnataka")
	rule := s.seedRule("GST_MONTHLY", models.FrequencyMonthly, 20)
	s.Require().NoError(s.svc.Sync(s.ctx, s.userID))

	// The rule tightens to GST-registered users only; this user is not one.
	requires := true
	rule.RequiresGST = &requires
	s.Require().NoError(s.rules.UpsertByCode(s.ctx, rule))
	s.Require().NoError(s.svc.Sync(s.ctx, s.userID))

	all, err := s.statuses.ListByUser(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Len(all, 1)
}

// --- Score ---

func (s *ServiceTestSuite) TestScorePerfectWhenNothingApplies() {
	s.seedProfile("freelancer", "<10k", false, "Karnataka")

	report, err := s.svc.Score(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Equal(100, report.Score)
	s.Equal(service.RiskLow, report.Risk)
}

func (s *ServiceTestSuite) TestScorePendingNotOverdue() {
	s.seedProfile("freelancer", "50k-1L", true, "Karnataka")
	s.seedRule("GST_MONTHLY", models.FrequencyMonthly, 20)
	s.Require().NoError(s.svc.Sync(s.ctx, s.userID))

	report, err := s.svc.Score(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Equal(70, report.Score)
	s.Equal(service.RiskMedium, report.Risk)
}

func (s *ServiceTestSuite) TestScoreTenDaysOverdue() {
	s.seedProfile("freelancer", "50k-1L", true, "Karnataka")
	s.seedRule("GST_MONTHLY", models.FrequencyMonthly, 20)
	s.Require().NoError(s.svc.Sync(s.ctx, s.userID))

	// Due 2024-04-20; ten days later the penalty is 10*5=50.
	tenDaysLate := s.at(time.Date(2024, 4, 30, 12, 0, 0, 0, time.UTC))
	report, err := s.svc.Score(tenDaysLate, s.userID)
	s.Require().NoError(err)
	s.Equal(50, report.Score)
	s.Equal(service.RiskMedium, report.Risk)
}

func (s *ServiceTestSuite) TestScoreOverduePenaltyCapped() {
	s.seedProfile("freelancer", "50k-1L", true, "Karnataka")
	s.seedRule("GST_MONTHLY", models.FrequencyMonthly, 20)
	s.Require().NoError(s.svc.Sync(s.ctx, s.userID))

	yearLate := s.at(time.Date(2025, 4, 20, 12, 0, 0, 0, time.UTC))
	report, err := s.svc.Score(yearLate, s.userID)
	s.Require().NoError(err)
	s.Equal(50, report.Score)
}

func (s *ServiceTestSuite) TestScoreCompletedCountsFull() {
	s.seedProfile("freelancer", "50k-1L", true, "Karnataka")
	rule := s.seedRule("GST_MONTHLY", models.FrequencyMonthly, 20)
	s.Require().NoError(s.svc.Sync(s.ctx, s.userID))

	status := s.statusFor(rule.ID)
	_, err := s.svc.MarkCompleted(s.ctx, status.ID, s.userID)
	s.Require().NoError(err)

	report, err := s.svc.Score(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Equal(100, report.Score)
	s.Equal(service.RiskLow, report.Risk)
}

func (s *ServiceTestSuite) TestScoreAveragesAcrossRules() {
	s.seedProfile("freelancer", "50k-1L", true, "Karnataka")
	completed := s.seedRule("GST_MONTHLY", models.FrequencyMonthly, 20)
	s.seedRule("PF_MONTHLY", models.FrequencyMonthly, 15)
	s.Require().NoError(s.svc.Sync(s.ctx, s.userID))

	status := s.statusFor(completed.ID)
	_, err := s.svc.MarkCompleted(s.ctx, status.ID, s.userID)
	s.Require().NoError(err)

	// (100 + 70) / 2 = 85
	report, err := s.svc.Score(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Equal(85, report.Score)
	s.Equal(service.RiskLow, report.Risk)
	s.Equal(2, report.TotalApplicable)
}

func (s *ServiceTestSuite) TestScoreTreatsUnsyncedRuleAsPending() {
	s.seedProfile("freelancer", "50k-1L", true, "Karnataka")
	synced := s.seedRule("GST_MONTHLY", models.FrequencyMonthly, 20)
	s.Require().NoError(s.svc.Sync(s.ctx, s.userID))
	status := s.statusFor(synced.ID)
	_, err := s.svc.MarkCompleted(s.ctx, status.ID, s.userID)
	s.Require().NoError(err)

	// A rule added after the last sync has no status row yet; it grades as
	// pending without a due date, never as an error.
	s.seedRule("PF_MONTHLY", models.FrequencyMonthly, 15)

	report, err := s.svc.Score(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Equal(85, report.Score) // (100 + 70) / 2
	s.Equal(2, report.TotalApplicable)
}

// --- Transitions ---

func (s *ServiceTestSuite) TestMarkCompletedStampsCompletionDate() {
	s.seedProfile("freelancer", "50k-1L", true, "Karnataka")
	rule := s.seedRule("GST_MONTHLY", models.FrequencyMonthly, 20)
	s.Require().NoError(s.svc.Sync(s.ctx, s.userID))
	status := s.statusFor(rule.ID)

	updated, err := s.svc.MarkCompleted(s.ctx, status.ID, s.userID)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, updated.State)
	s.Require().NotNil(updated.CompletedDate)
	s.Equal(s.now, *updated.CompletedDate)
}

func (s *ServiceTestSuite) TestMarkNotApplicableLeavesCompletionDateEmpty() {
	s.seedProfile("freelancer", "50k-1L", true, "Karnataka")
	rule := s.seedRule("GST_MONTHLY", models.FrequencyMonthly, 20)
	s.Require().NoError(s.svc.Sync(s.ctx, s.userID))
	status := s.statusFor(rule.ID)

	updated, err := s.svc.MarkNotApplicable(s.ctx, status.ID, s.userID)
	s.Require().NoError(err)
	s.Equal(models.StatusNotApplicable, updated.State)
	s.Nil(updated.CompletedDate)
}

func (s *ServiceTestSuite) TestTransitionRejectsTerminalStates() {
	s.seedProfile("freelancer", "50k-1L", true, "Karnataka")
	rule := s.seedRule("GST_MONTHLY", models.FrequencyMonthly, 20)
	s.Require().NoError(s.svc.Sync(s.ctx, s.userID))
	status := s.statusFor(rule.ID)

	_, err := s.svc.MarkCompleted(s.ctx, status.ID, s.userID)
	s.Require().NoError(err)

	_, err = s.svc.MarkNotApplicable(s.ctx, status.ID, s.userID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.svc.MarkCompleted(s.ctx, status.ID, s.userID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceTestSuite) TestTransitionHidesForeignStatuses() {
	s.seedProfile("freelancer", "50k-1L", true, "Karnataka")
	rule := s.seedRule("GST_MONTHLY", models.FrequencyMonthly, 20)
	s.Require().NoError(s.svc.Sync(s.ctx, s.userID))
	status := s.statusFor(rule.ID)

	stranger := id.NewUserID()
	_, err := s.svc.MarkCompleted(s.ctx, status.ID, stranger)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	// Row untouched.
	s.Equal(models.StatusPending, s.statusFor(rule.ID).State)
}

func (s *ServiceTestSuite) TestTransitionUnknownStatusNotFound() {
	_, err := s.svc.MarkCompleted(s.ctx, id.NewStatusID(), s.userID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// --- Actions ---

func (s *ServiceTestSuite) TestListActionsJoinsRuleDetails() {
	s.seedProfile("freelancer", "50k-1L", true, "Karnataka")
	rule := s.seedRule("GST_MONTHLY", models.FrequencyMonthly, 20)
	s.Require().NoError(s.svc.Sync(s.ctx, s.userID))

	actions, err := s.svc.ListActions(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Require().Len(actions, 1)
	s.Equal(rule.Code, actions[0].RuleCode)
	s.Equal(models.StatusPending, actions[0].State)
	s.False(actions[0].IsOverdue)
	s.False(actions[0].IsDueToday)
	s.Require().NotNil(actions[0].DaysUntilDue)
	// Midnight Mar 5 to noon Apr 20 is 46.5 days, rounded up.
	s.Equal(47, *actions[0].DaysUntilDue)
}

func (s *ServiceTestSuite) TestListActionsFlagsDueTodayNotOverdue() {
	s.seedProfile("freelancer", "50k-1L", true, "Karnataka")
	s.seedRule("GST_MONTHLY", models.FrequencyMonthly, 20)
	s.Require().NoError(s.svc.Sync(s.ctx, s.userID))

	// Due 2024-04-20 at noon; a request earlier that morning sees it as due
	// today, not overdue.
	dueMorning := s.at(time.Date(2024, 4, 20, 8, 0, 0, 0, time.UTC))
	actions, err := s.svc.ListActions(dueMorning, s.userID)
	s.Require().NoError(err)
	s.Require().Len(actions, 1)
	s.True(actions[0].IsDueToday)
	s.False(actions[0].IsOverdue)
}

func (s *ServiceTestSuite) TestListActionsFlagsOverdue() {
	s.seedProfile("freelancer", "50k-1L", true, "Karnataka")
	s.seedRule("GST_MONTHLY", models.FrequencyMonthly, 20)
	s.Require().NoError(s.svc.Sync(s.ctx, s.userID))

	later := s.at(time.Date(2024, 4, 25, 8, 0, 0, 0, time.UTC))
	actions, err := s.svc.ListActions(later, s.userID)
	s.Require().NoError(err)
	s.Require().Len(actions, 1)
	s.True(actions[0].IsOverdue)
	s.False(actions[0].IsDueToday)
	s.Require().NotNil(actions[0].DaysUntilDue)
	s.Negative(*actions[0].DaysUntilDue)
}

func (s *ServiceTestSuite) TestListActionsSkipsOrphanedRows() {
	s.seedProfile("freelancer", "50k-1L", true, "Karnataka")
	orphan := models.NewPendingStatus(id.NewStatusID(), s.userID, id.NewRuleID(), s.now.AddDate(0, 1, 0), s.now)
	s.Require().NoError(s.statuses.Create(s.ctx, orphan))

	actions, err := s.svc.ListActions(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Empty(actions)
}

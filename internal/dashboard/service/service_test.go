package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"saathi/internal/compliance/models"
	compservice "saathi/internal/compliance/service"
	profilestore "saathi/internal/compliance/store/profile"
	rulestore "saathi/internal/compliance/store/rule"
	statusstore "saathi/internal/compliance/store/status"
	"saathi/internal/dashboard/service"
	id "saathi/pkg/domain"
	"saathi/pkg/requestcontext"
)

type DashboardTestSuite struct {
	suite.Suite
	rules    *rulestore.InMemory
	profiles *profilestore.InMemory
	statuses *statusstore.InMemory
	comp     *compservice.Service
	svc      *service.Service

	userID id.UserID
	now    time.Time
	ctx    context.Context
}

func TestDashboardTestSuite(t *testing.T) {
	suite.Run(t, new(DashboardTestSuite))
}

func (s *DashboardTestSuite) SetupTest() {
	s.rules = rulestore.NewInMemory()
	s.profiles = profilestore.NewInMemory()
	s.statuses = statusstore.NewInMemory()
	s.comp = compservice.New(s.rules, s.profiles, s.statuses)
	s.svc = service.New(s.profiles, s.comp, nil)

	s.userID = id.NewUserID()
	s.now = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *DashboardTestSuite) at(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *DashboardTestSuite) onboard() {
	profile, err := models.NewUserProfile(s.userID, "freelancer", "50k-1L", true, "Karnataka", "", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.profiles.Upsert(s.ctx, profile))
}

func (s *DashboardTestSuite) seedRule(code string, day int) *models.Rule {
	rule := &models.Rule{
		ID:          id.NewRuleID(),
		Code:        code,
		Name:        code,
		Category:    "tax",
		Frequency:   models.FrequencyMonthly,
		DeadlineDay: &day,
	}
	s.Require().NoError(s.rules.UpsertByCode(s.ctx, rule))
	return rule
}

func (s *DashboardTestSuite) TestOnboardingRequiredWithoutProfile() {
	summary, err := s.svc.Summarize(s.ctx, s.userID)
	s.Require().NoError(err)
	s.True(summary.OnboardingRequired)
	s.NotEmpty(summary.Message)
	s.Zero(summary.ConfidenceScore)
}

func (s *DashboardTestSuite) TestCompliantUserSeesUpcomingDeadline() {
	s.onboard()
	s.seedRule("GST_MONTHLY", 20)
	s.Require().NoError(s.comp.Sync(s.ctx, s.userID))

	summary, err := s.svc.Summarize(s.ctx, s.userID)
	s.Require().NoError(err)
	s.False(summary.OnboardingRequired)
	s.Equal(70, summary.ConfidenceScore)
	s.Equal(compservice.RiskMedium, summary.RiskLevel)
	s.Zero(summary.PendingCount)
	s.Require().NotNil(summary.Upcoming)
	s.Equal("GST_MONTHLY", summary.Upcoming.Name)
	// Noon Mar 5 to noon Apr 20 is exactly 46 days.
	s.Equal(46, summary.Upcoming.DaysUntil)
	s.Equal("Next deadline in 46 days", summary.StatusMessage)
	s.Equal(1, summary.TotalCompliances)
	s.Zero(summary.CompletedCompliances)
}

func (s *DashboardTestSuite) TestDueWorkDrivesPendingCount() {
	s.onboard()
	s.seedRule("GST_MONTHLY", 20)
	s.Require().NoError(s.comp.Sync(s.ctx, s.userID))

	late := s.at(time.Date(2024, 4, 25, 12, 0, 0, 0, time.UTC))
	summary, err := s.svc.Summarize(late, s.userID)
	s.Require().NoError(err)
	s.Equal(1, summary.PendingCount)
	s.Nil(summary.Upcoming)
	s.Equal("1 action pending", summary.StatusMessage)
}

func (s *DashboardTestSuite) TestPluralPendingMessage() {
	s.onboard()
	s.seedRule("GST_MONTHLY", 20)
	s.seedRule("PF_MONTHLY", 15)
	s.Require().NoError(s.comp.Sync(s.ctx, s.userID))

	late := s.at(time.Date(2024, 5, 25, 12, 0, 0, 0, time.UTC))
	summary, err := s.svc.Summarize(late, s.userID)
	s.Require().NoError(err)
	s.Equal(2, summary.PendingCount)
	s.Equal("2 actions pending", summary.StatusMessage)
}

func (s *DashboardTestSuite) TestAllResolvedIsCompliantToday() {
	s.onboard()
	rule := s.seedRule("GST_MONTHLY", 20)
	s.Require().NoError(s.comp.Sync(s.ctx, s.userID))

	status, err := s.statuses.FindByUserAndRule(s.ctx, s.userID, rule.ID)
	s.Require().NoError(err)
	_, err = s.comp.MarkCompleted(s.ctx, status.ID, s.userID)
	s.Require().NoError(err)

	summary, err := s.svc.Summarize(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Equal(100, summary.ConfidenceScore)
	s.Zero(summary.PendingCount)
	s.Nil(summary.Upcoming)
	s.Equal("You're compliant today!", summary.StatusMessage)
	s.Equal(1, summary.CompletedCompliances)
}

func (s *DashboardTestSuite) TestUpcomingPicksEarliestDeadline() {
	s.onboard()
	s.seedRule("GST_MONTHLY", 20)
	s.seedRule("PF_MONTHLY", 15)
	s.Require().NoError(s.comp.Sync(s.ctx, s.userID))

	summary, err := s.svc.Summarize(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Require().NotNil(summary.Upcoming)
	s.Equal("PF_MONTHLY", summary.Upcoming.Name)
}

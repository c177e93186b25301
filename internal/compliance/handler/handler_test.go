package handler_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saathi/internal/compliance/handler"
	"saathi/internal/compliance/models"
	"saathi/internal/compliance/service"
	profilestore "saathi/internal/compliance/store/profile"
	rulestore "saathi/internal/compliance/store/rule"
	statusstore "saathi/internal/compliance/store/status"
	id "saathi/pkg/domain"
	"saathi/pkg/requestcontext"
)

type fixture struct {
	router   chi.Router
	svc      *service.Service
	statuses *statusstore.InMemory
	userID   id.UserID
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	rules := rulestore.NewInMemory()
	profiles := profilestore.NewInMemory()
	statuses := statusstore.NewInMemory()
	svc := service.New(rules, profiles, statuses)

	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	userID := id.NewUserID()
	ctx := requestcontext.WithTime(context.Background(), now)

	day := 20
	rule := &models.Rule{
		ID:          id.NewRuleID(),
		Code:        "GST_MONTHLY",
		Name:        "GST Monthly Return",
		Category:    "tax",
		Frequency:   models.FrequencyMonthly,
		DeadlineDay: &day,
	}
	require.NoError(t, rules.UpsertByCode(ctx, rule))

	profile, err := models.NewUserProfile(userID, "freelancer", "50k-1L", true, "Karnataka", "", now)
	require.NoError(t, err)
	require.NoError(t, profiles.Upsert(ctx, profile))
	require.NoError(t, svc.Sync(ctx, userID))

	router := chi.NewRouter()
	h := handler.New(svc, slog.New(slog.NewTextHandler(testWriter{t}, nil)))
	h.Register(router)

	return &fixture{router: router, svc: svc, statuses: statuses, userID: userID, now: now}
}

func (f *fixture) request(t *testing.T, method, path string, asUser bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	ctx := requestcontext.WithTime(req.Context(), f.now)
	if asUser {
		ctx = requestcontext.WithUserID(ctx, f.userID)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func (f *fixture) pendingStatusID(t *testing.T) id.StatusID {
	t.Helper()
	ctx := requestcontext.WithTime(context.Background(), f.now)
	all, err := f.statuses.ListByUser(ctx, f.userID)
	require.NoError(t, err)
	require.NotEmpty(t, all)
	return all[0].ID
}

func TestListActionsReturnsJoinedRows(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/actions/today", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Actions []service.Action `json:"actions"`
		Total   int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "GST_MONTHLY", resp.Actions[0].RuleCode)
	assert.Equal(t, models.StatusPending, resp.Actions[0].State)
}

func TestListActionsWithoutAuthContextFails(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/actions/today", false)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCompleteTransitionsStatus(t *testing.T) {
	f := newFixture(t)
	statusID := f.pendingStatusID(t)

	rec := f.request(t, http.MethodPost, "/actions/"+statusID.String()+"/complete", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var status models.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, models.StatusCompleted, status.State)
	require.NotNil(t, status.CompletedDate)
}

func TestNotApplicableTransitionsStatus(t *testing.T) {
	f := newFixture(t)
	statusID := f.pendingStatusID(t)

	rec := f.request(t, http.MethodPost, "/actions/"+statusID.String()+"/not-applicable", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var status models.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, models.StatusNotApplicable, status.State)
	assert.Nil(t, status.CompletedDate)
}

func TestCompleteTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	statusID := f.pendingStatusID(t)

	rec := f.request(t, http.MethodPost, "/actions/"+statusID.String()+"/complete", true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodPost, "/actions/"+statusID.String()+"/complete", true)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCompleteMalformedIDBadRequest(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/actions/not-a-uuid/complete", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompleteUnknownIDNotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/actions/"+id.NewStatusID().String()+"/complete", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScoreEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/score", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var report service.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 70, report.Score)
	assert.Equal(t, service.RiskMedium, report.Risk)
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

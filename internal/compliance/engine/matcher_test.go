package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"saathi/internal/compliance/models"
	id "saathi/pkg/domain"
)

func boolPtr(b bool) *bool { return &b }

func onboardedProfile() *models.UserProfile {
	return &models.UserProfile{
		UserID:              id.NewUserID(),
		WorkType:            "freelancer",
		MonthlyIncome:       "10k-50k",
		IsGSTRegistered:     false,
		State:               "Karnataka",
		OnboardingCompleted: true,
	}
}

func TestApplicable_NotOnboarded(t *testing.T) {
	profile := onboardedProfile()
	profile.OnboardingCompleted = false
	rules := []*models.Rule{{ID: id.NewRuleID(), Code: "ITR_ANNUAL"}}

	assert.Empty(t, Applicable(profile, rules))
	assert.Empty(t, Applicable(nil, rules))
}

func TestApplicable_NoPredicatesMatchesEveryone(t *testing.T) {
	rule := &models.Rule{ID: id.NewRuleID(), Code: "ITR_ANNUAL"}

	for _, workType := range []string{"freelancer", "shop_owner", "small_business"} {
		profile := onboardedProfile()
		profile.WorkType = workType
		assert.True(t, Matches(profile, rule), "work type %s should match unrestricted rule", workType)
	}
}

func TestMatches_WorkTypePredicate(t *testing.T) {
	rule := &models.Rule{
		Code:        "GST_MONTHLY",
		WorkTypes:   []string{"shop_owner", "small_business"},
		RequiresGST: boolPtr(true),
	}

	t.Run("mismatched work type excludes regardless of other predicates", func(t *testing.T) {
		// GST also fails here, but work type alone is sufficient to exclude.
		profile := &models.UserProfile{
			WorkType:            "freelancer",
			MonthlyIncome:       "<10k",
			IsGSTRegistered:     false,
			State:               "Goa",
			OnboardingCompleted: true,
		}
		assert.False(t, Matches(profile, rule))
	})

	t.Run("member work type passes", func(t *testing.T) {
		profile := onboardedProfile()
		profile.WorkType = "shop_owner"
		profile.IsGSTRegistered = true
		assert.True(t, Matches(profile, rule))
	})
}

func TestMatches_IncomePredicate(t *testing.T) {
	cases := []struct {
		name       string
		userBucket string
		min, max   string
		want       bool
	}{
		{"within bounds", "10k-50k", "<10k", "50k-1L", true},
		{"at inclusive lower bound", "10k-50k", "10k-50k", "", true},
		{"at inclusive upper bound", "50k-1L", "", "50k-1L", true},
		{"below min", "<10k", "10k-50k", "", false},
		{"above max", ">5L", "", "1L-5L", false},
		{"no bounds always passes", "<10k", "", "", true},
		{"unknown user bucket maps to zero", "weird", "10k-50k", "", false},
		{"unknown user bucket passes when unbounded below", "weird", "", "1L-5L", true},
		{"unknown min bucket maps to zero", "<10k", "weird", "", true},
		{"unknown max bucket is unbounded", ">5L", "<10k", "weird", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			profile := onboardedProfile()
			profile.MonthlyIncome = tc.userBucket
			rule := &models.Rule{MinIncome: tc.min, MaxIncome: tc.max}
			assert.Equal(t, tc.want, Matches(profile, rule))
		})
	}
}

func TestMatches_GSTPredicate(t *testing.T) {
	t.Run("requires GST fails for unregistered", func(t *testing.T) {
		rule := &models.Rule{RequiresGST: boolPtr(true)}
		profile := onboardedProfile()
		profile.IsGSTRegistered = false
		assert.False(t, Matches(profile, rule))
	})

	t.Run("requires GST passes for registered", func(t *testing.T) {
		rule := &models.Rule{RequiresGST: boolPtr(true)}
		profile := onboardedProfile()
		profile.IsGSTRegistered = true
		assert.True(t, Matches(profile, rule))
	})

	t.Run("explicit false passes regardless of registration", func(t *testing.T) {
		rule := &models.Rule{RequiresGST: boolPtr(false)}
		for _, registered := range []bool{true, false} {
			profile := onboardedProfile()
			profile.IsGSTRegistered = registered
			assert.True(t, Matches(profile, rule))
		}
	})

	t.Run("unspecified passes regardless of registration", func(t *testing.T) {
		rule := &models.Rule{}
		for _, registered := range []bool{true, false} {
			profile := onboardedProfile()
			profile.IsGSTRegistered = registered
			assert.True(t, Matches(profile, rule))
		}
	})
}

func TestMatches_StatePredicate(t *testing.T) {
	rule := &models.Rule{States: []string{"Karnataka", "Maharashtra"}}

	t.Run("member state passes", func(t *testing.T) {
		profile := onboardedProfile()
		profile.State = "Karnataka"
		assert.True(t, Matches(profile, rule))
	})

	t.Run("non-member state fails", func(t *testing.T) {
		profile := onboardedProfile()
		profile.State = "Goa"
		assert.False(t, Matches(profile, rule))
	})

	t.Run("match is case sensitive", func(t *testing.T) {
		profile := onboardedProfile()
		profile.State = "karnataka"
		assert.False(t, Matches(profile, rule))
	})
}

// TestApplicable_IncomeMonotonicity: raising the income bucket never removes
// a rule with an unbounded max, and never adds a rule whose min exceeds the
// new bucket.
func TestApplicable_IncomeMonotonicity(t *testing.T) {
	buckets := []string{"<10k", "10k-50k", "50k-1L", "1L-5L", ">5L"}
	unboundedMax := &models.Rule{ID: id.NewRuleID(), Code: "UNBOUNDED", MinIncome: "<10k"}
	highMin := &models.Rule{ID: id.NewRuleID(), Code: "HIGH_MIN", MinIncome: ">5L"}
	rules := []*models.Rule{unboundedMax, highMin}

	for i := 1; i < len(buckets); i++ {
		lower := onboardedProfile()
		lower.MonthlyIncome = buckets[i-1]
		higher := onboardedProfile()
		higher.MonthlyIncome = buckets[i]

		lowerSet := Applicable(lower, rules)
		higherSet := Applicable(higher, rules)

		if containsRule(lowerSet, unboundedMax.Code) {
			assert.True(t, containsRule(higherSet, unboundedMax.Code),
				"raising %s to %s dropped the unbounded-max rule", buckets[i-1], buckets[i])
		}
		if containsRule(higherSet, highMin.Code) {
			assert.Equal(t, ">5L", buckets[i], "high-min rule appeared before its bound was reached")
		}
	}
}

func containsRule(rules []*models.Rule, code string) bool {
	for _, r := range rules {
		if r.Code == code {
			return true
		}
	}
	return false
}

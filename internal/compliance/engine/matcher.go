// Package engine holds the pure decision logic of the compliance core:
// rule applicability matching and due date calculation. Nothing here touches
// a store or a clock; callers supply profiles, rules, and reference instants.
package engine

import (
	"math"
	"slices"

	"saathi/internal/compliance/models"
)

// incomeScale maps the bucketed monthly income labels collected during
// onboarding onto comparable rupee midpoints. Rule income bounds use the same
// labels, so both sides of the comparison go through this table.
var incomeScale = map[string]int64{
	"<10k":    5000,
	"10k-50k": 30000,
	"50k-1L":  75000,
	"1L-5L":   300000,
	">5L":     1000000,
}

// IncomeValue maps an income bucket label to its comparable value.
// Unknown or absent labels map to 0.
func IncomeValue(bucket string) int64 {
	return incomeScale[bucket]
}

// Applicable filters the rule catalog down to the rules that apply to the
// given profile. A profile that has not completed onboarding matches nothing;
// that is the distinguished "not onboarded" state, not an error.
//
// The result preserves catalog order. Rules either fully apply or are
// excluded; there is no partial-match scoring.
func Applicable(profile *models.UserProfile, rules []*models.Rule) []*models.Rule {
	if profile == nil || !profile.OnboardingCompleted {
		return nil
	}
	applicable := make([]*models.Rule, 0, len(rules))
	for _, rule := range rules {
		if Matches(profile, rule) {
			applicable = append(applicable, rule)
		}
	}
	return applicable
}

// Matches reports whether every specified predicate on the rule passes for
// the profile. Unspecified predicates pass vacuously, so a rule with no
// predicates applies to every onboarded profile.
func Matches(profile *models.UserProfile, rule *models.Rule) bool {
	if rule.RestrictsWorkTypes() && !slices.Contains(rule.WorkTypes, profile.WorkType) {
		return false
	}
	if !incomeInRange(profile.MonthlyIncome, rule.MinIncome, rule.MaxIncome) {
		return false
	}
	// A rule that explicitly does not require GST passes for everyone,
	// registered or not. Only requires_gst=true can exclude.
	if rule.RequiresGST != nil && *rule.RequiresGST && !profile.IsGSTRegistered {
		return false
	}
	if rule.RestrictsStates() && !slices.Contains(rule.States, profile.State) {
		return false
	}
	return true
}

// incomeInRange checks the mapped user income against the rule's bucket
// bounds, inclusive on both ends. An absent min is 0, an absent max is
// unbounded, and an unknown bucket label on either bound falls back the
// same way.
func incomeInRange(userBucket, minBucket, maxBucket string) bool {
	if minBucket == "" && maxBucket == "" {
		return true
	}
	income := IncomeValue(userBucket)

	var minIncome int64
	if minBucket != "" {
		minIncome = IncomeValue(minBucket)
	}

	maxIncome := int64(math.MaxInt64)
	if maxBucket != "" {
		if v := IncomeValue(maxBucket); v != 0 {
			maxIncome = v
		}
	}

	return income >= minIncome && income <= maxIncome
}

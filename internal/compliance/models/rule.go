package models

import (
	id "saathi/pkg/domain"
)

// Frequency is the recurrence schedule of a compliance obligation.
type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnual    Frequency = "annual"
	FrequencyOther     Frequency = "other"
)

// Rule is an immutable compliance obligation definition: a recurring
// regulatory requirement (tax filing, labor return, registration) together
// with the predicates deciding which businesses it applies to.
//
// Invariants:
//   - Code is unique across the catalog and stable across deployments
//   - Rules are reference data: seeded externally, read-only to the engine,
//     safely shared across concurrent evaluations
//
// Applicability predicates follow "absent matches any" semantics: an empty
// WorkTypes or States set places no restriction, a nil RequiresGST means the
// rule is indifferent to GST registration, and empty income bounds are
// unbounded on that side.
type Rule struct {
	ID                 id.RuleID `json:"id"`
	Code               string    `json:"code"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Category           string    `json:"category"`
	PenaltyDescription string    `json:"penalty_description"`

	WorkTypes   []string `json:"applicable_work_types,omitempty"`
	MinIncome   string   `json:"min_income,omitempty"`
	MaxIncome   string   `json:"max_income,omitempty"`
	RequiresGST *bool    `json:"requires_gst,omitempty"`
	States      []string `json:"applicable_states,omitempty"`

	Frequency     Frequency `json:"frequency"`
	DeadlineDay   *int      `json:"deadline_day,omitempty"`
	DeadlineMonth *int      `json:"deadline_month,omitempty"`
}

// RestrictsWorkTypes reports whether the rule limits which work types it
// applies to.
func (r *Rule) RestrictsWorkTypes() bool { return len(r.WorkTypes) > 0 }

// RestrictsStates reports whether the rule limits which states it applies to.
func (r *Rule) RestrictsStates() bool { return len(r.States) > 0 }

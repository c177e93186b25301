// Package store seeds the compliance rule catalog.
package store

import (
	"context"
	"fmt"

	"saathi/internal/compliance/models"
	id "saathi/pkg/domain"
	pstrings "saathi/pkg/platform/strings"
)

// RuleWriter is the subset of the rule store seeding needs.
type RuleWriter interface {
	UpsertByCode(ctx context.Context, rule *models.Rule) error
}

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

// Catalog returns the built-in compliance rule catalog for Indian
// micro-businesses. Codes are stable identifiers; seeding upserts by code so
// repeated startups converge on the same catalog without duplicates.
func Catalog() []*models.Rule {
	return []*models.Rule{
		{
			ID:                 id.NewRuleID(),
			Code:               "GST_MONTHLY",
			Name:               "GST Monthly Return (GSTR-3B)",
			Description:        "Monthly return for GST registered businesses showing summary of sales and purchases",
			Category:           "GST",
			WorkTypes:          []string{"shop_owner", "small_business"},
			RequiresGST:        boolPtr(true),
			Frequency:          models.FrequencyMonthly,
			DeadlineDay:        intPtr(20),
			PenaltyDescription: "Late fee of ₹50 per day (max ₹5,000)",
		},
		{
			ID:                 id.NewRuleID(),
			Code:               "GST_QUARTERLY",
			Name:               "GST Quarterly Return (GSTR-1)",
			Description:        "Quarterly return for GST registered businesses with turnover less than ₹1.5 crore",
			Category:           "GST",
			WorkTypes:          []string{"shop_owner", "small_business"},
			RequiresGST:        boolPtr(true),
			Frequency:          models.FrequencyQuarterly,
			DeadlineDay:        intPtr(13),
			PenaltyDescription: "Late fee of ₹50 per day (max ₹5,000)",
		},
		{
			ID:                 id.NewRuleID(),
			Code:               "ITR_ANNUAL",
			Name:               "Income Tax Return (ITR)",
			Description:        "Annual income tax return filing for individuals and businesses",
			Category:           "IncomeTax",
			MinIncome:          "10k-50k",
			Frequency:          models.FrequencyAnnual,
			DeadlineMonth:      intPtr(7),
			DeadlineDay:        intPtr(31),
			PenaltyDescription: "Late filing fee of ₹5,000 (if income > ₹5L)",
		},
		{
			ID:                 id.NewRuleID(),
			Code:               "TDS_QUARTERLY",
			Name:               "TDS Return (Form 26Q)",
			Description:        "Quarterly TDS return if you deduct tax at source",
			Category:           "IncomeTax",
			WorkTypes:          []string{"small_business"},
			MinIncome:          "1L-5L",
			Frequency:          models.FrequencyQuarterly,
			DeadlineDay:        intPtr(31),
			PenaltyDescription: "Late fee of ₹200 per day",
		},
		{
			ID:                 id.NewRuleID(),
			Code:               "PF_MONTHLY",
			Name:               "EPF Monthly Return",
			Description:        "Monthly EPF return if you have employees",
			Category:           "Labor",
			WorkTypes:          []string{"small_business"},
			Frequency:          models.FrequencyMonthly,
			DeadlineDay:        intPtr(15),
			PenaltyDescription: "Interest and penalty charges",
		},
		{
			ID:                 id.NewRuleID(),
			Code:               "ESI_MONTHLY",
			Name:               "ESI Monthly Return",
			Description:        "Monthly ESI return if you have 10+ employees",
			Category:           "Labor",
			WorkTypes:          []string{"small_business"},
			Frequency:          models.FrequencyMonthly,
			DeadlineDay:        intPtr(15),
			PenaltyDescription: "Penalty for late filing",
		},
		{
			ID:                 id.NewRuleID(),
			Code:               "SHOP_ACT",
			Name:               "Shop & Establishment Act Registration",
			Description:        "Registration under state Shop & Establishment Act for commercial establishments",
			Category:           "Labor",
			WorkTypes:          []string{"shop_owner", "small_business"},
			Frequency:          models.FrequencyAnnual,
			DeadlineMonth:      intPtr(12),
			DeadlineDay:        intPtr(31),
			PenaltyDescription: "Fine as per state rules",
		},
	}
}

// SeedRules loads the built-in catalog into the rule store. Work type lists
// are normalized so matching can compare them verbatim.
func SeedRules(ctx context.Context, rules RuleWriter) error {
	for _, rule := range Catalog() {
		rule.WorkTypes = pstrings.DedupeAndTrimLower(rule.WorkTypes)
		if err := rules.UpsertByCode(ctx, rule); err != nil {
			return fmt.Errorf("seed rule %s: %w", rule.Code, err)
		}
	}
	return nil
}

package models

import (
	"time"

	id "saathi/pkg/domain"
	dErrors "saathi/pkg/domain-errors"
)

// UserProfile captures the business facts onboarding collects about a user.
// It is written only by the onboarding module; the compliance engine treats
// it as read-only input.
//
// State matching against rules is an exact string comparison, so onboarding
// is expected to submit canonical state names. MonthlyIncome is a bucket
// label from the fixed income scale (see engine.IncomeValue).
type UserProfile struct {
	UserID              id.UserID `json:"user_id"`
	WorkType            string    `json:"work_type"`
	MonthlyIncome       string    `json:"monthly_income"`
	IsGSTRegistered     bool      `json:"is_gst_registered"`
	State               string    `json:"state"`
	City                string    `json:"city,omitempty"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// NewUserProfile constructs a completed profile from onboarding answers.
// City is optional; everything else is required.
func NewUserProfile(userID id.UserID, workType, monthlyIncome string, gstRegistered bool, state, city string, now time.Time) (*UserProfile, error) {
	if userID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	if workType == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "work type is required")
	}
	if monthlyIncome == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "monthly income is required")
	}
	if state == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "state is required")
	}
	return &UserProfile{
		UserID:              userID,
		WorkType:            workType,
		MonthlyIncome:       monthlyIncome,
		IsGSTRegistered:     gstRegistered,
		State:               state,
		City:                city,
		OnboardingCompleted: true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

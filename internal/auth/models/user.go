// Package models defines the account types for authentication.
package models

import (
	"strings"
	"time"

	id "saathi/pkg/domain"
	dErrors "saathi/pkg/domain-errors"
)

// User is a registered account. PasswordHash is a bcrypt hash; the plaintext
// never leaves the registration or login request.
type User struct {
	ID           id.UserID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const minPasswordLength = 8

// ValidateCredentials checks registration input before hashing.
func ValidateCredentials(email, password string) error {
	if email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if !strings.Contains(email, "@") {
		return dErrors.New(dErrors.CodeValidation, "email is not valid")
	}
	if len(password) < minPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	return nil
}

// NewUser constructs a user with an already-hashed password.
func NewUser(userID id.UserID, email, name, passwordHash string, now time.Time) *User {
	return &User{
		ID:           userID,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

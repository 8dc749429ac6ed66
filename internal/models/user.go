package models

import (
	"time"

	"github.com/google/uuid"
)

// Person is the single identity record for a phone number, whether it belongs
// to a registered user or to a contact/spam placeholder.
type Person struct {
	ID           uuid.UUID  `json:"id"`
	PhoneNumber  string     `json:"phone_number"`
	Name         *string    `json:"name"`
	Email        *string    `json:"email,omitempty"`
	PasswordHash *string    `json:"-"`
	Type         PersonType `json:"type"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// DisplayName returns the stored name or an empty string for unnamed placeholders.
func (p Person) DisplayName() string {
	if p.Name == nil {
		return ""
	}
	return *p.Name
}

// HasCredential reports whether the person can authenticate.
func (p Person) HasCredential() bool {
	return p.PasswordHash != nil && *p.PasswordHash != ""
}

// StringPtr returns nil for empty strings.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package model

import (
	"encoding/json"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account in the system
type User struct {
	ID                int64          `json:"id"`
	Login             string         `json:"login"`
	Email             string         `json:"email"`
	PasswordHash      string         `json:"-"` // Do not expose password hash in JSON responses
	LegacyPassword    bool           `json:"-"` // PasswordHash still holds a plaintext value from the old system
	Role              string         `json:"role"`
	IsBlocked         bool           `json:"is_blocked"`
	FullName          string         `json:"full_name"`
	Phone             *string        `json:"phone,omitempty"`
	DateOfBirth       *time.Time     `json:"date_of_birth,omitempty"`
	Address           *string        `json:"address,omitempty"`
	PassportSeries    *string        `json:"passport_series,omitempty"`
	PassportNumber    *string        `json:"passport_number,omitempty"`
	PassportIssuedBy  *string        `json:"passport_issued_by,omitempty"`
	PassportIssueDate *time.Time     `json:"passport_issue_date,omitempty"`
	PreferencesRaw    *string        `json:"-"`
	Preferences       map[string]any `json:"preferences"`
	ProfileCompleted  bool           `json:"profile_completed"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ExpandPreferences decodes the stored preferences text into Preferences.
// Empty or unreadable values become an empty object.
func (u *User) ExpandPreferences() {
	u.Preferences = map[string]any{}
	if u.PreferencesRaw == nil || *u.PreferencesRaw == "" {
		return
	}
	var prefs map[string]any
	if err := json.Unmarshal([]byte(*u.PreferencesRaw), &prefs); err == nil && prefs != nil {
		u.Preferences = prefs
	}
}

// RegisterRequest is the payload for POST /auth/register
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"required"`
	Login    string `json:"login" binding:"omitempty,min=3,max=64"`
}

// LoginRequest is the payload for POST /auth/login
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest is used by PUT /users/me. Nil fields are left untouched.
type UpdateProfileRequest struct {
	FullName          *string        `json:"full_name,omitempty" binding:"omitempty,min=1"`
	Phone             *string        `json:"phone,omitempty"`
	DateOfBirth       *string        `json:"date_of_birth,omitempty" binding:"omitempty,isodate"`
	Address           *string        `json:"address,omitempty"`
	PassportSeries    *string        `json:"passport_series,omitempty"`
	PassportNumber    *string        `json:"passport_number,omitempty"`
	PassportIssuedBy  *string        `json:"passport_issued_by,omitempty"`
	PassportIssueDate *string        `json:"passport_issue_date,omitempty" binding:"omitempty,isodate"`
	Preferences       map[string]any `json:"preferences,omitempty"`
	ProfileCompleted  *bool          `json:"profile_completed,omitempty"`
}

// AdminUserUpdateRequest is used by PUT /users/:id
type AdminUserUpdateRequest struct {
	Role      *string `json:"role,omitempty" binding:"omitempty,oneof=user admin"`
	IsBlocked *bool   `json:"is_blocked,omitempty"`
}

// UserFilters contains filter parameters for admin user queries
type UserFilters struct {
	Role      *string
	IsBlocked *bool
	Search    *string // matches login, email or full name
}

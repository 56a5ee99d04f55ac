// Package model defines the data structures used throughout the application.
//
// Models are plain structs. All behavior (state transitions, validation,
// derived values) lives in the service layer; the structs carry data only.
package model

import "time"

// DefaultWeightKG is assumed for calorie estimates when an account has no
// body weight on its profile.
const DefaultWeightKG = 70

// Account represents a registered user account.
//
// Verified is a two-state machine: an account is created unverified with a
// pending code, and transitions to verified exactly once. CodeExpiresAt is
// never nil while Code is set; both are cleared on successful verification.
type Account struct {
	ID            string     `json:"id"          db:"id"`
	Username      string     `json:"username"    db:"username"`
	Email         string     `json:"email"       db:"email"`
	PasswordHash  string     `json:"-"           db:"password_hash"`
	Verified      bool       `json:"isVerified"  db:"verified"`
	Code          string     `json:"-"           db:"code"`
	CodeExpiresAt *time.Time `json:"-"           db:"code_expires_at"`

	// Profile attributes, opaque to the auth/activity cores except for
	// WeightKG, which feeds the calorie estimate.
	DisplayName string  `json:"displayName" db:"display_name"`
	AvatarURL   string  `json:"avatarUrl"   db:"avatar_url"`
	WeightKG    float64 `json:"weightKg"    db:"weight_kg"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Pending reports whether the account still awaits email verification.
func (a *Account) Pending() bool {
	return !a.Verified
}

// Weight returns the profile body weight, falling back to DefaultWeightKG
// when the profile has none.
func (a *Account) Weight() float64 {
	if a.WeightKG <= 0 {
		return DefaultWeightKG
	}
	return a.WeightKG
}

// PublicAccount is the account view returned to clients. It never carries
// the password hash or the pending verification code.
type PublicAccount struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// Public maps an Account to its client-visible fields.
func (a *Account) Public() *PublicAccount {
	return &PublicAccount{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		AvatarURL:   a.AvatarURL,
	}
}

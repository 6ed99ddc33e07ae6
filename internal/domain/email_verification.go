package domain

import "time"

// VerificationType enumerates what an emailed code or link proves.
const (
	VerificationTypeRegistration  = "email_registration"
	VerificationTypeEmailChange   = "email_change"
	VerificationTypePasswordReset = "password_reset"
)

// VerificationStatus enumerates valid verification states.
const (
	VerificationStatusPending  = "pending"
	VerificationStatusVerified = "verified"
	VerificationStatusExpired  = "expired"
	VerificationStatusFailed   = "failed"
)

// EmailVerification tracks one emailed code or reset link.
type EmailVerification struct {
	ID         int64
	UserID     int64
	Email      string
	Code       string
	ResetToken string
	Type       string
	Status     string
	ExpiresAt  time.Time
	VerifiedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Expired reports whether the verification is expired relative to now.
func (v EmailVerification) Expired(now time.Time) bool {
	if v.ExpiresAt.IsZero() {
		return false
	}
	return now.UTC().After(v.ExpiresAt.UTC())
}

// Usable reports whether the verification can still be redeemed.
func (v EmailVerification) Usable(now time.Time) bool {
	return v.Status == VerificationStatusPending && !v.Expired(now)
}

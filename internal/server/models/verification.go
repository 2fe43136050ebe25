package models

import "time"

// EmailVerification is a pending registration code. There is at most one per e-mail.
type EmailVerification struct {
	Email     string
	OTP       string
	ExpiresAt time.Time
	// Attempts counts wrong codes submitted since the code was issued.
	Attempts int
}

// Expired reports whether the code can no longer be redeemed at now.
func (v *EmailVerification) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}

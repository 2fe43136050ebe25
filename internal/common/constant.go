// Package common contains shared constants and sentinel errors used across
// TaskFlow components.
package common

import "time"

// SessionCookieName is the cookie that carries the signed session token
// between the API server and its clients.
const SessionCookieName = "taskflow.sid"

// OTPLength is the number of decimal digits in an e-mail verification code.
const OTPLength = 6

// DefaultOTPValidity is how long a freshly issued verification code stays usable.
const DefaultOTPValidity = 10 * time.Minute

// MaxOTPAttempts is how many wrong codes a pending verification survives.
const MaxOTPAttempts = 5

// Package otp issues and verifies hashed, expiring, single-use one-time codes
// scoped to an (identifier, purpose) pair.
package otp

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Purpose tags why a code was issued so challenges for different flows never collide.
type Purpose string

// Recognized purposes.
const (
	PurposeSignup    Purpose = "signup"
	PurposeLogin     Purpose = "login"
	PurposeScreening Purpose = "screening"
	PurposeInterview Purpose = "interview"
)

// Purposes lists every recognized purpose.
var Purposes = []Purpose{PurposeSignup, PurposeLogin, PurposeScreening, PurposeInterview}

// maxIdentifierLen bounds identifiers to the longest valid email address.
const maxIdentifierLen = 320

var (
	// ErrValidation reports a malformed identifier, purpose or code. No store access happened.
	ErrValidation = errors.New("otp: validation failed")
	// ErrRateLimited reports that sends for the pair are throttled.
	ErrRateLimited = errors.New("otp: too many code requests")
	// ErrDelivery reports that the notifier could not deliver the code.
	ErrDelivery = errors.New("otp: code delivery failed")
)

// RateLimitedError carries the wait before another send may succeed.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("otp: too many code requests, retry after %s", e.RetryAfter.Round(time.Second))
}

// Unwrap lets errors.Is match ErrRateLimited.
func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

// Reason explains a failed verification. Callers must not expose it to end users.
type Reason string

// Verification failure reasons.
const (
	ReasonNone          Reason = ""
	ReasonNotFound      Reason = "not_found"
	ReasonExpired       Reason = "expired"
	ReasonTriesExceeded Reason = "tries_exceeded"
	ReasonMismatch      Reason = "mismatch"
)

// Result is the outcome of Verify.
type Result struct {
	Valid  bool
	Reason Reason
}

// Challenge is a freshly generated code. Code is plaintext and must only go to the notifier or caller.
type Challenge struct {
	ID         uint64
	Identifier string
	Purpose    Purpose
	Code       string
	ExpiresAt  time.Time
}

// ParsePurpose returns the Purpose for s or ErrValidation.
func ParsePurpose(s string) (Purpose, error) {
	p := Purpose(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown purpose", ErrValidation)
	}
	return p, nil
}

// Valid reports whether p is a recognized purpose.
func (p Purpose) Valid() bool {
	for _, known := range Purposes {
		if p == known {
			return true
		}
	}
	return false
}

// NormalizeIdentifier trims and lower-cases an email or phone identifier.
func NormalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// normalizeAndCheck normalizes identifier and rejects empty, oversized or whitespace-bearing values.
func normalizeAndCheck(identifier string) (string, error) {
	normalized := NormalizeIdentifier(identifier)
	if normalized == "" {
		return "", fmt.Errorf("%w: identifier is required", ErrValidation)
	}
	if len(normalized) > maxIdentifierLen {
		return "", fmt.Errorf("%w: identifier too long", ErrValidation)
	}
	for _, r := range normalized {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", fmt.Errorf("%w: identifier contains whitespace", ErrValidation)
		}
	}
	return normalized, nil
}

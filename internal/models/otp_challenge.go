package models

import "time"

// OTPChallenge stores a single hashed one-time code issued for an identifier and purpose.
type OTPChallenge struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	// Identifier is the normalized email or phone the code was sent to.
	Identifier string `gorm:"type:text;not null;index:idx_otp_challenges_lookup,priority:1"`
	// Purpose is the flow the code was issued for.
	Purpose string `gorm:"type:varchar(32);not null;index:idx_otp_challenges_lookup,priority:2"`

	CodeHash string `gorm:"type:varchar(64);not null"` // SHA-256 hex of the code.

	ExpiresAt time.Time `gorm:"not null;index"` // Expiry timestamp.
	// ConsumedAt is set once, on successful verification or when superseded.
	ConsumedAt *time.Time `gorm:"index:idx_otp_challenges_lookup,priority:3"`

	TriesUsed int `gorm:"not null;default:0"` // Failed verification attempts.
	MaxTries  int `gorm:"not null;default:5"` // Allowed failed attempts.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

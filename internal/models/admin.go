package models

import "time"

// Admin represents a dashboard operator allowed to sign in with an emailed code.
type Admin struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Email string `gorm:"type:text;not null;uniqueIndex"`     // Normalized login email.
	Role  string `gorm:"type:text;not null;default:'admin'"` // Role tag used by the auth gate.

	Active bool `gorm:"not null;default:true"` // Whether the admin can sign in.

	Password string `gorm:"type:text"` // Optional bcrypt hash checked before a login code is sent.

	TOTPSecret        string `gorm:"type:text"` // Confirmed TOTP secret for MFA.
	PendingTOTPSecret string `gorm:"type:text"` // TOTP secret awaiting confirmation.

	// WebAuthn credential accepted in place of a TOTP code.
	PasskeyID             []byte
	PasskeyPublicKey      []byte
	PasskeySignCount      *uint32 `gorm:"type:bigint"`
	PasskeyBackupEligible *bool
	PasskeyBackupState    *bool

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

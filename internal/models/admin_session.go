package models

import (
	"time"

	"gorm.io/datatypes"
)

// AdminSession records a dashboard session; only the hash of the bearer token is stored.
type AdminSession struct {
	ID string `gorm:"type:varchar(36);primaryKey"` // UUID.

	OwnerEmail string `gorm:"type:text;not null;index"`              // Email of the signed-in admin.
	TokenHash  string `gorm:"type:varchar(64);not null;uniqueIndex"` // SHA-256 hex of the cookie value.

	ExpiresAt      time.Time  `gorm:"not null;index"` // Absolute expiry.
	RevokedAt      *time.Time `gorm:"index"`          // Set on logout or administrative revoke.
	LastActivityAt time.Time  `gorm:"not null"`       // Updated on each authenticated check.

	ClientInfo datatypes.JSON `gorm:"type:jsonb"` // User agent and address captured at sign-in.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

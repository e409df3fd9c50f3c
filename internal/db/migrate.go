package db

import (
	"fmt"

	"github.com/hirelane/hirelane-identity/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the identity tables.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errMigrate := conn.AutoMigrate(
		&models.Admin{},
		&models.OTPChallenge{},
		&models.AdminSession{},
		&models.Setting{},
	); errMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errMigrate)
	}
	return nil
}

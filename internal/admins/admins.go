// Package admins manages dashboard operator accounts.
package admins

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hirelane/hirelane-identity/internal/models"
	"github.com/hirelane/hirelane-identity/internal/security"
	"gorm.io/gorm"
)

// Built-in roles. Other role tags are accepted and treated as unrestricted.
const (
	RoleAdmin   = "admin"
	RoleSupport = "support"
)

var (
	ErrExists       = errors.New("admins: email already registered")
	ErrInvalidEmail = errors.New("admins: invalid email")
	ErrInvalidRole  = errors.New("admins: invalid role")
)

var (
	rolePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,31}$`)
	validate    = validator.New()
)

// CreateParams holds inputs for admin creation.
type CreateParams struct {
	Email    string
	Role     string
	Password string // Optional; empty means code-only sign in.
}

// NormalizeEmail trims and lower-cases an email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidRole reports whether role is a well-formed role tag.
func ValidRole(role string) bool {
	return rolePattern.MatchString(role)
}

// Create inserts a new active admin.
func Create(ctx context.Context, db *gorm.DB, p CreateParams) (*models.Admin, error) {
	email := NormalizeEmail(p.Email)
	if errVar := validate.Var(email, "required,email,max=320"); errVar != nil {
		return nil, ErrInvalidEmail
	}
	role := strings.ToLower(strings.TrimSpace(p.Role))
	if role == "" {
		role = RoleAdmin
	}
	if !ValidRole(role) {
		return nil, ErrInvalidRole
	}

	admin := &models.Admin{Email: email, Role: role, Active: true}
	if password := strings.TrimSpace(p.Password); password != "" {
		hash, errHash := security.HashPassword(password)
		if errHash != nil {
			return nil, fmt.Errorf("admins: hash password: %w", errHash)
		}
		admin.Password = hash
	}

	// The unique index on email decides; concurrent creates of one email yield a single row.
	if errCreate := db.WithContext(ctx).Create(admin).Error; errCreate != nil {
		if errors.Is(errCreate, gorm.ErrDuplicatedKey) || emailTaken(ctx, db, email) {
			return nil, ErrExists
		}
		return nil, errCreate
	}
	return admin, nil
}

// emailTaken covers connections opened without gorm error translation.
func emailTaken(ctx context.Context, db *gorm.DB, email string) bool {
	var existing int64
	if errCount := db.WithContext(ctx).Model(&models.Admin{}).Where("email = ?", email).Count(&existing).Error; errCount != nil {
		return false
	}
	return existing > 0
}

// FindActive returns the active admin with email, or nil when none exists.
func FindActive(ctx context.Context, db *gorm.DB, email string) (*models.Admin, error) {
	var admin models.Admin
	errFind := db.WithContext(ctx).Where("email = ? AND active = ?", NormalizeEmail(email), true).Take(&admin).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errFind
	}
	return &admin, nil
}

package session

import (
	"context"
	"errors"
	"time"

	"github.com/hirelane/hirelane-identity/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrSessionNotFound is returned by Repository lookups that match no row.
	ErrSessionNotFound = errors.New("session: not found")
	// ErrAdminNotFound is returned when no admin has the email.
	ErrAdminNotFound = errors.New("session: admin not found")
)

// Repository persists admin sessions and reads the admins behind them.
type Repository interface {
	Create(ctx context.Context, s *models.AdminSession) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.AdminSession, error)
	GetByID(ctx context.Context, id string) (*models.AdminSession, error)
	ListActive(ctx context.Context, ownerEmail string, now time.Time) ([]models.AdminSession, error)
	Touch(ctx context.Context, id string, at time.Time) error
	RevokeByTokenHash(ctx context.Context, tokenHash string, at time.Time) error
	RevokeByID(ctx context.Context, id string, at time.Time) error
	RevokeAllForOwner(ctx context.Context, ownerEmail string, at time.Time) (int64, error)
	FindAdmin(ctx context.Context, email string) (*models.Admin, error)
}

// GormRepository is the gorm-backed Repository.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository constructs a GormRepository.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Create inserts s.
func (r *GormRepository) Create(ctx context.Context, s *models.AdminSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// GetByTokenHash returns the session whose token hashes to tokenHash.
func (r *GormRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.AdminSession, error) {
	return r.take(ctx, "token_hash = ?", tokenHash)
}

// GetByID returns the session with id.
func (r *GormRepository) GetByID(ctx context.Context, id string) (*models.AdminSession, error) {
	return r.take(ctx, "id = ?", id)
}

func (r *GormRepository) take(ctx context.Context, query string, arg any) (*models.AdminSession, error) {
	var row models.AdminSession
	if errFind := r.db.WithContext(ctx).Where(query, arg).Take(&row).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, errFind
	}
	return &row, nil
}

// ListActive returns unrevoked, unexpired sessions of ownerEmail, newest first.
func (r *GormRepository) ListActive(ctx context.Context, ownerEmail string, now time.Time) ([]models.AdminSession, error) {
	var rows []models.AdminSession
	if errFind := r.db.WithContext(ctx).
		Where("owner_email = ? AND revoked_at IS NULL AND expires_at >= ?", ownerEmail, now).
		Order("created_at DESC").
		Find(&rows).Error; errFind != nil {
		return nil, errFind
	}
	return rows, nil
}

// Touch records activity on a session.
func (r *GormRepository) Touch(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.AdminSession{}).
		Where("id = ?", id).
		UpdateColumn("last_activity_at", at).Error
}

// RevokeByTokenHash revokes the matching session if it is still active. Missing rows are not an error.
func (r *GormRepository) RevokeByTokenHash(ctx context.Context, tokenHash string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.AdminSession{}).
		Where("token_hash = ? AND revoked_at IS NULL", tokenHash).
		UpdateColumn("revoked_at", at).Error
}

// RevokeByID revokes the session with id. Already revoked sessions are left untouched.
func (r *GormRepository) RevokeByID(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.AdminSession{}).
		Where("id = ? AND revoked_at IS NULL", id).
		UpdateColumn("revoked_at", at).Error
}

// RevokeAllForOwner revokes every active session of ownerEmail.
func (r *GormRepository) RevokeAllForOwner(ctx context.Context, ownerEmail string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.AdminSession{}).
		Where("owner_email = ? AND revoked_at IS NULL", ownerEmail).
		UpdateColumn("revoked_at", at)
	return res.RowsAffected, res.Error
}

// FindAdmin returns the admin with email.
func (r *GormRepository) FindAdmin(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	if errFind := r.db.WithContext(ctx).Where("email = ?", email).Take(&admin).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, errFind
	}
	return &admin, nil
}

package otp

import (
	"context"
	"errors"
	"time"

	"github.com/hirelane/hirelane-identity/internal/models"
	"gorm.io/gorm"
)

// ErrChallengeNotFound is returned by Store.Latest when the pair has no unconsumed challenge.
var ErrChallengeNotFound = errors.New("otp: challenge not found")

// Store persists challenges. Every method is a single statement or one short transaction.
type Store interface {
	// Replace marks prior unconsumed challenges for the pair consumed and inserts c.
	Replace(ctx context.Context, c *models.OTPChallenge, now time.Time) error
	// Latest returns the newest unconsumed challenge for the pair, expired or not.
	Latest(ctx context.Context, identifier, purpose string) (*models.OTPChallenge, error)
	// IncrementTries adds one failed attempt to an unconsumed challenge.
	IncrementTries(ctx context.Context, id uint64) error
	// Consume sets consumed_at if the challenge is still unconsumed, unexpired and under its try limit.
	// It reports whether this call won the update.
	Consume(ctx context.Context, id uint64, now time.Time) (bool, error)
	// Retire marks a challenge consumed without it having been verified.
	Retire(ctx context.Context, id uint64, now time.Time) error
}

// GormStore is the gorm-backed Store.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore constructs a GormStore.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Replace implements Store.
func (s *GormStore) Replace(ctx context.Context, c *models.OTPChallenge, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errSupersede := tx.Model(&models.OTPChallenge{}).
			Where("identifier = ? AND purpose = ? AND consumed_at IS NULL", c.Identifier, c.Purpose).
			UpdateColumn("consumed_at", now).Error; errSupersede != nil {
			return errSupersede
		}
		return tx.Create(c).Error
	})
}

// Latest implements Store.
func (s *GormStore) Latest(ctx context.Context, identifier, purpose string) (*models.OTPChallenge, error) {
	var row models.OTPChallenge
	errFind := s.db.WithContext(ctx).
		Where("identifier = ? AND purpose = ? AND consumed_at IS NULL", identifier, purpose).
		Order("id DESC").
		Take(&row).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, errFind
	}
	return &row, nil
}

// IncrementTries implements Store.
func (s *GormStore) IncrementTries(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).
		Model(&models.OTPChallenge{}).
		Where("id = ? AND consumed_at IS NULL", id).
		UpdateColumn("tries_used", gorm.Expr("tries_used + 1")).Error
}

// Consume implements Store.
func (s *GormStore) Consume(ctx context.Context, id uint64, now time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.OTPChallenge{}).
		Where("id = ? AND consumed_at IS NULL AND tries_used < max_tries AND expires_at > ?", id, now).
		UpdateColumn("consumed_at", now)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Retire implements Store.
func (s *GormStore) Retire(ctx context.Context, id uint64, now time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.OTPChallenge{}).
		Where("id = ? AND consumed_at IS NULL", id).
		UpdateColumn("consumed_at", now).Error
}

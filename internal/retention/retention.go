// Package retention purges spent one-time codes and ended sessions.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/hirelane/hirelane-identity/internal/settings"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultInterval        = 6 * time.Hour
	defaultDeleteBatchSize = 5000
	maxDeleteBatchesPerRun = 2000
)

// Result counts rows deleted by one cleanup pass.
type Result struct {
	Challenges int64
	Sessions   int64
}

// Cleaner periodically deletes otp_challenges and admin_sessions rows that ended
// more than RETENTION_DAYS ago. A retention of 0 disables deletion.
type Cleaner struct {
	db        *gorm.DB
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewCleaner constructs a Cleaner, or nil when db is nil.
func NewCleaner(db *gorm.DB) *Cleaner {
	if db == nil {
		return nil
	}
	return &Cleaner{
		db:        db,
		interval:  defaultInterval,
		batchSize: defaultDeleteBatchSize,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start launches the cleanup loop in a background goroutine.
func (c *Cleaner) Start(ctx context.Context) {
	if c == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go c.run(ctx)
	log.Infof("retention cleaner started (interval=%s)", c.interval)
}

func (c *Cleaner) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if _, errCleanup := c.CleanupOnce(ctx); errCleanup != nil {
			log.WithError(errCleanup).Warn("retention cleaner: pass failed")
		}
		timer := time.NewTimer(c.interval)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return
		case <-timer.C:
		}
	}
}

// CleanupOnce reloads settings and runs a single pass using RETENTION_DAYS. When the
// reload fails the last known value is used.
func (c *Cleaner) CleanupOnce(ctx context.Context) (Result, error) {
	if c == nil || c.db == nil {
		return Result{}, nil
	}
	if errRefresh := settings.Refresh(ctx, c.db); errRefresh != nil {
		log.WithError(errRefresh).Warn("retention cleaner: settings refresh failed, using cached values")
	}
	retentionDays := settings.RetentionDays()
	if retentionDays <= 0 {
		return Result{}, nil
	}
	cutoff := c.now().AddDate(0, 0, -retentionDays)

	var result Result
	var errDelete error
	result.Challenges, errDelete = c.deleteAll(ctx, `
		DELETE FROM otp_challenges
		WHERE id IN (
			SELECT id FROM otp_challenges
			WHERE expires_at < ? OR (consumed_at IS NOT NULL AND consumed_at < ?)
			ORDER BY id ASC
			LIMIT ?
		)
	`, cutoff)
	if errDelete != nil {
		return result, fmt.Errorf("retention: otp challenges: %w", errDelete)
	}
	result.Sessions, errDelete = c.deleteAll(ctx, `
		DELETE FROM admin_sessions
		WHERE id IN (
			SELECT id FROM admin_sessions
			WHERE expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)
			ORDER BY expires_at ASC
			LIMIT ?
		)
	`, cutoff)
	if errDelete != nil {
		return result, fmt.Errorf("retention: admin sessions: %w", errDelete)
	}

	if result.Challenges > 0 || result.Sessions > 0 {
		log.Infof("retention cleaner: deleted %d challenges and %d sessions (cutoff=%s retention_days=%d)",
			result.Challenges, result.Sessions, cutoff.Format(time.RFC3339), retentionDays)
	}
	return result, nil
}

// deleteAll repeats a limited delete until it removes nothing.
func (c *Cleaner) deleteAll(ctx context.Context, query string, cutoff time.Time) (int64, error) {
	limit := c.batchSize
	if limit <= 0 {
		limit = defaultDeleteBatchSize
	}
	var total int64
	for i := 0; i < maxDeleteBatchesPerRun; i++ {
		if errCtx := ctx.Err(); errCtx != nil {
			return total, errCtx
		}
		res := c.db.WithContext(ctx).Exec(query, cutoff, cutoff, limit)
		if res.Error != nil {
			return total, res.Error
		}
		if res.RowsAffected <= 0 {
			break
		}
		total += res.RowsAffected
	}
	return total, nil
}

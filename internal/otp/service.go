package otp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hirelane/hirelane-identity/internal/config"
	"github.com/hirelane/hirelane-identity/internal/models"
	"github.com/hirelane/hirelane-identity/internal/notify"
	"github.com/hirelane/hirelane-identity/internal/security"
	"github.com/hirelane/hirelane-identity/internal/settings"
	"github.com/hirelane/hirelane-identity/internal/util"
	log "github.com/sirupsen/logrus"
)

// Options configures a Service.
type Options struct {
	TTL      time.Duration   // Code lifetime.
	MaxTries int             // Failed attempts allowed per challenge.
	Notifier notify.Notifier // Optional; when nil the caller delivers the code.
	Limiter  SendLimiter     // Optional send throttle.
}

// Service generates and verifies one-time codes.
type Service struct {
	store    Store
	ttl      time.Duration
	maxTries int
	notifier notify.Notifier
	limiter  SendLimiter
	now      func() time.Time
}

// NewService constructs a Service over store.
func NewService(store Store, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = config.DefaultOTPTTLMinutes * time.Minute
	}
	if opts.MaxTries <= 0 {
		opts.MaxTries = config.DefaultOTPMaxTries
	}
	return &Service{
		store:    store,
		ttl:      opts.TTL,
		maxTries: opts.MaxTries,
		notifier: opts.Notifier,
		limiter:  opts.Limiter,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Generate issues a new code for the pair, superseding any earlier one, and hands it to the notifier.
func (s *Service) Generate(ctx context.Context, purpose, identifier string) (Challenge, error) {
	normalized, errIdentifier := normalizeAndCheck(identifier)
	if errIdentifier != nil {
		return Challenge{}, errIdentifier
	}
	p, errPurpose := ParsePurpose(purpose)
	if errPurpose != nil {
		return Challenge{}, errPurpose
	}

	if s.limiter != nil {
		wait, errAllow := s.limiter.Allow(ctx, normalized, p)
		switch {
		case errAllow != nil:
			log.WithError(errAllow).Warn("otp: send limiter unavailable, continuing without throttle")
		case wait > 0:
			return Challenge{}, &RateLimitedError{RetryAfter: wait}
		}
	}

	code, errCode := security.GenerateOTPCode()
	if errCode != nil {
		return Challenge{}, errCode
	}
	now := s.now()
	row := &models.OTPChallenge{
		Identifier: normalized,
		Purpose:    string(p),
		CodeHash:   security.HashSecret(code),
		ExpiresAt:  now.Add(s.ttl),
		MaxTries:   s.maxTries,
	}
	if errReplace := s.store.Replace(ctx, row, now); errReplace != nil {
		return Challenge{}, fmt.Errorf("otp: store challenge: %w", errReplace)
	}

	if s.notifier != nil {
		errSend := s.notifier.SendOTP(ctx, notify.Delivery{
			Identifier: normalized,
			Purpose:    string(p),
			Code:       code,
			ExpiresAt:  row.ExpiresAt,
			SiteName:   settings.SiteName(),
		})
		if errSend != nil {
			if errRetire := s.store.Retire(ctx, row.ID, s.now()); errRetire != nil {
				log.WithError(errRetire).Warn("otp: retire undelivered challenge failed")
			}
			log.WithError(errSend).WithField("identifier", util.MaskIdentifier(normalized)).Warn("otp: delivery failed")
			return Challenge{}, fmt.Errorf("%w: %w", ErrDelivery, errSend)
		}
	}

	log.WithFields(log.Fields{
		"identifier": util.MaskIdentifier(normalized),
		"purpose":    p,
	}).Info("otp: code issued")

	return Challenge{
		ID:         row.ID,
		Identifier: normalized,
		Purpose:    p,
		Code:       code,
		ExpiresAt:  row.ExpiresAt,
	}, nil
}

// Verify checks candidate against the current challenge for the pair.
// Failures are reported through Result; the returned error is reserved for
// validation (ErrValidation) and storage failures.
func (s *Service) Verify(ctx context.Context, identifier, purpose, candidate string) (Result, error) {
	normalized, errIdentifier := normalizeAndCheck(identifier)
	if errIdentifier != nil {
		return Result{}, errIdentifier
	}
	p, errPurpose := ParsePurpose(purpose)
	if errPurpose != nil {
		return Result{}, errPurpose
	}
	candidate = strings.TrimSpace(candidate)
	if !security.IsOTPCodeShape(candidate) {
		return Result{}, fmt.Errorf("%w: code must be %d digits", ErrValidation, security.OTPDigits)
	}

	challenge, errLatest := s.store.Latest(ctx, normalized, string(p))
	if errLatest != nil {
		if errors.Is(errLatest, ErrChallengeNotFound) {
			return Result{Reason: ReasonNotFound}, nil
		}
		return Result{}, fmt.Errorf("otp: load challenge: %w", errLatest)
	}

	now := s.now()
	if !now.Before(challenge.ExpiresAt) {
		return Result{Reason: ReasonExpired}, nil
	}
	if challenge.TriesUsed >= challenge.MaxTries {
		return Result{Reason: ReasonTriesExceeded}, nil
	}

	if !security.SecretMatchesHash(candidate, challenge.CodeHash) {
		if errIncrement := s.store.IncrementTries(ctx, challenge.ID); errIncrement != nil {
			return Result{}, fmt.Errorf("otp: record failed attempt: %w", errIncrement)
		}
		return Result{Reason: ReasonMismatch}, nil
	}

	consumed, errConsume := s.store.Consume(ctx, challenge.ID, now)
	if errConsume != nil {
		return Result{}, fmt.Errorf("otp: consume challenge: %w", errConsume)
	}
	if !consumed {
		return Result{Reason: ReasonNotFound}, nil
	}
	log.WithFields(log.Fields{
		"identifier": util.MaskIdentifier(normalized),
		"purpose":    p,
	}).Info("otp: code verified")
	return Result{Valid: true}, nil
}

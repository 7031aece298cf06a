package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/E-bethel/wholesaleNaja-backend/internal/identity"
	"github.com/E-bethel/wholesaleNaja-backend/internal/models"
	"github.com/E-bethel/wholesaleNaja-backend/internal/notify"
	"github.com/E-bethel/wholesaleNaja-backend/internal/store"
	"github.com/E-bethel/wholesaleNaja-backend/internal/utils"
)

// OTP policy. TTL is 10 minutes, matching the spirit of the one-hour
// rate-limit window. The rate limit is advisory: the count query and the
// insert are not atomic, so heavy concurrent abuse can slip an extra issue
// past the nominal cap. That is acceptable for a soft limit.
const (
	otpTTL          = 10 * time.Minute
	otpRateWindow   = time.Hour
	otpMaxPerWindow = 3
	otpMaxAttempts  = 5
)

// OtpEngine issues, rate-limits, and validates one-time passcodes.
type OtpEngine struct {
	repo     store.Repository
	notifier notify.Notifier
	log      *logrus.Logger
	now      func() time.Time
}

// NewOtpEngine constructs an OtpEngine.
func NewOtpEngine(repo store.Repository, notifier notify.Notifier, log *logrus.Logger) *OtpEngine {
	return &OtpEngine{repo: repo, notifier: notifier, log: log, now: time.Now}
}

// Issue generates a 6-digit code bound to the identity key, delivers it via
// the notifier, and persists the record. Delivery and persistence are one
// logical operation: the code is sent first, so a failed delivery leaves no
// record behind and a record only ever exists for a code the user could have
// received.
func (e *OtpEngine) Issue(ctx context.Context, key identity.Key) error {
	since := e.now().Add(-otpRateWindow)
	count, err := e.repo.CountOtpsSince(ctx, key.Value, since)
	if err != nil {
		return fmt.Errorf("count recent OTPs: %w", err)
	}
	if count >= otpMaxPerWindow {
		e.log.WithField("key", key.Value).Warn("OTP issuance rate limited")
		return ErrRateLimited
	}

	code, err := utils.GenerateOtpCode()
	if err != nil {
		return fmt.Errorf("generate OTP code: %w", err)
	}

	if err := e.notifier.SendCode(ctx, key, code); err != nil {
		return fmt.Errorf("deliver OTP: %w", err)
	}

	rec := &models.OtpRecord{
		Key:       key.Value,
		OtpHash:   utils.DigestOtpCode(code),
		ExpiresAt: e.now().Add(otpTTL),
	}
	if err := e.repo.CreateOtp(ctx, rec); err != nil {
		return fmt.Errorf("persist OTP record: %w", err)
	}

	e.log.WithFields(logrus.Fields{
		"key":     key.Value,
		"channel": key.Kind,
	}).Info("OTP issued")
	return nil
}

// Verify checks a submitted code against the latest unexpired, unverified
// record for the key. Absence and expiry are indistinguishable to the caller
// so issuance timing is not leaked. A correct resubmission after a successful
// verification succeeds again; the record is only removed by provisioning.
func (e *OtpEngine) Verify(ctx context.Context, key identity.Key, submitted string) error {
	now := e.now()

	rec, err := e.repo.LatestPendingOtp(ctx, key.Value, now)
	if errors.Is(err, store.ErrNotFound) {
		return e.verifyReplay(ctx, key, submitted, now)
	}
	if err != nil {
		return fmt.Errorf("load OTP record: %w", err)
	}

	if rec.Attempts >= otpMaxAttempts {
		return ErrTooManyAttempts
	}

	if !utils.CheckOtpCode(rec.OtpHash, submitted) {
		if err := e.repo.IncrementOtpAttempts(ctx, rec.ID); err != nil {
			return fmt.Errorf("record failed attempt: %w", err)
		}
		return ErrInvalidCode
	}

	if err := e.repo.MarkOtpVerified(ctx, rec.ID); err != nil {
		return fmt.Errorf("mark OTP verified: %w", err)
	}
	return nil
}

// verifyReplay handles a duplicate submission of an already-verified code.
func (e *OtpEngine) verifyReplay(ctx context.Context, key identity.Key, submitted string, now time.Time) error {
	rec, err := e.repo.LatestVerifiedOtp(ctx, key.Value)
	if errors.Is(err, store.ErrNotFound) {
		return ErrOtpNotFound
	}
	if err != nil {
		return fmt.Errorf("load verified OTP record: %w", err)
	}
	if rec.ExpiresAt.After(now) && utils.CheckOtpCode(rec.OtpHash, submitted) {
		return nil
	}
	return ErrOtpNotFound
}

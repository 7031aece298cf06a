package services

import "errors"

// Core error taxonomy. Handlers map these to HTTP statuses; anything not
// listed here is an internal fault.
var (
	// OTP engine.
	ErrRateLimited     = errors.New("too many OTP requests for this key")
	ErrOtpNotFound     = errors.New("verification code not found")
	ErrInvalidCode     = errors.New("invalid verification code")
	ErrTooManyAttempts = errors.New("too many verification attempts")

	// Account provisioning.
	ErrOtpNotVerified = errors.New("OTP not verified")
	ErrUserExists     = errors.New("account already exists for this key")

	// Ledger and unlock flow.
	ErrInsufficientBalance = errors.New("insufficient coins")
	ErrPaymentRequired     = errors.New("insufficient coins to unlock seller")
	ErrSelfUnlock          = errors.New("cannot unlock yourself")
	ErrSellerNotFound      = errors.New("seller not found")

	// Webhook ingestion.
	ErrMalformedEvent = errors.New("missing required webhook fields")
)

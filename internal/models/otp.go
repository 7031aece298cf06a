package models

import "time"

// OtpRecord tracks a one-time passcode issued against an email or phone key.
// Only the SHA-256 digest of the code is persisted, never the plaintext.
// Multiple records may exist per key; the latest unexpired, unverified one is
// the active record for verification, and the latest verified one is consulted
// by account provisioning.
type OtpRecord struct {
	BaseModel
	Key       string    `gorm:"index:idx_otp_key_created,priority:1" json:"key"`
	OtpHash   string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Verified  bool      `json:"verified"`
	Attempts  int       `json:"attempts"`
}

package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
)

// otpRange covers the 6-digit code space [100000, 999999].
const (
	otpMin   = 100000
	otpRange = 900000
)

// GenerateOtpCode draws a uniform 6-digit numeric code from crypto/rand.
func GenerateOtpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpRange))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+otpMin), nil
}

// DigestOtpCode returns the hex-encoded SHA-256 digest of a code. Only the
// digest is ever persisted.
func DigestOtpCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// CheckOtpCode compares a submitted code against a stored digest in constant
// time.
func CheckOtpCode(storedDigest, submitted string) bool {
	digest := DigestOtpCode(submitted)
	return subtle.ConstantTimeCompare([]byte(storedDigest), []byte(digest)) == 1
}

package security

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

const (
	ResetTokenBytes = 20 // 160 bit
	ResetTokenTTL   = 5 * time.Minute
)

// NewResetToken returns an opaque single-use token and the moment it stops
// being valid. The expiry is cut to milliseconds, the precision Mongo stores.
func NewResetToken(now time.Time, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = ResetTokenTTL
	}
	b := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", time.Time{}, err
	}
	return hex.EncodeToString(b), now.Add(ttl).Truncate(time.Millisecond), nil
}

// ResetTokenExpired is true once expiresAt is strictly before now.
func ResetTokenExpired(expiresAt, now time.Time) bool {
	return expiresAt.Before(now)
}

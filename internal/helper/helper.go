package helper

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormalizeEmail is the directory's email policy: trimmed, lower-cased.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EmailRef is a short stable reference for an email address, safe to put in logs.
func EmailRef(email string) string {
	sum := sha256.Sum256([]byte(NormalizeEmail(email)))
	return hex.EncodeToString(sum[:8])
}

package security_test

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/tazhibayda/account-service/internal/security"
)

func TestNewResetToken(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	tok, exp, err := security.NewResetToken(now, 0)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := hex.DecodeString(tok)
	if err != nil || len(raw) != security.ResetTokenBytes {
		t.Fatalf("token %q is not %d hex bytes", tok, security.ResetTokenBytes)
	}
	if !exp.Equal(now.Add(5 * time.Minute)) {
		t.Fatalf("expiry = %s", exp)
	}

	other, _, _ := security.NewResetToken(now, time.Minute)
	if other == tok {
		t.Fatal("tokens repeat")
	}
}

func TestNewResetToken_MillisecondExpiry(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 123456789, time.UTC)
	_, exp, err := security.NewResetToken(now, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2025, 1, 2, 3, 5, 5, 123000000, time.UTC)
	if !exp.Equal(want) {
		t.Fatalf("expiry = %s, want %s", exp, want)
	}
	// the returned instant survives a round trip through a millisecond store
	if security.ResetTokenExpired(exp.Truncate(time.Millisecond), exp) {
		t.Fatal("stored expiry must still be valid at the returned instant")
	}
}

func TestResetTokenExpired_Boundary(t *testing.T) {
	exp := time.Date(2025, 1, 2, 3, 9, 5, 0, time.UTC)
	if security.ResetTokenExpired(exp, exp) {
		t.Fatal("equal instant must still be valid")
	}
	if !security.ResetTokenExpired(exp, exp.Add(time.Microsecond)) {
		t.Fatal("one microsecond later must be expired")
	}
	if security.ResetTokenExpired(exp, exp.Add(-time.Second)) {
		t.Fatal("earlier instant must be valid")
	}
}

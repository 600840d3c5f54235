package auth

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager(testSecret, "auth-api", "auth-api-client", time.Hour)

	token, err := m.Sign("user-123")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Fatalf("UserID = %q, want user-123", claims.UserID)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt); got != time.Hour {
		t.Fatalf("token lifetime = %v, want 1h", got)
	}
}

func TestTokenTamperingInvalidates(t *testing.T) {
	m := NewTokenManager(testSecret, "auth-api", "auth-api-client", time.Hour)

	token, err := m.Sign("user-123")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	// Flipping a byte of the encoded token must break verification.
	raw := []byte(token)
	for _, i := range []int{0, len(raw) / 2, len(raw) - 2} {
		mutated := append([]byte(nil), raw...)
		if mutated[i] == 'A' {
			mutated[i] = 'B'
		} else {
			mutated[i] = 'A'
		}

		if _, err := m.Verify(string(mutated)); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Verify accepted a token mutated at byte %d", i)
		}
	}
}

func TestTokenIssuerAndAudienceEnforced(t *testing.T) {
	signer := NewTokenManager(testSecret, "auth-api", "auth-api-client", time.Hour)
	token, err := signer.Sign("user-123")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	wrongIssuer := NewTokenManager(testSecret, "other-issuer", "auth-api-client", time.Hour)
	if _, err := wrongIssuer.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Error("issuer mismatch should invalidate the token")
	}

	wrongAudience := NewTokenManager(testSecret, "auth-api", "other-client", time.Hour)
	if _, err := wrongAudience.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Error("audience mismatch should invalidate the token")
	}

	wrongSecret := NewTokenManager("ffffffffffffffffffffffffffffffff", "auth-api", "auth-api-client", time.Hour)
	if _, err := wrongSecret.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Error("wrong secret should invalidate the token")
	}
}

func TestTokenExpiry(t *testing.T) {
	m := NewTokenManager(testSecret, "auth-api", "auth-api-client", time.Hour)
	issued := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	token, err := m.Sign("user-123")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	m.now = func() time.Time { return issued.Add(59 * time.Minute) }
	if _, err := m.Verify(token); err != nil {
		t.Fatalf("token should still verify before expiry: %v", err)
	}

	m.now = func() time.Time { return issued.Add(61 * time.Minute) }
	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatal("expired token should not verify")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := NewTokenManager(testSecret, "auth-api", "auth-api-client", time.Hour)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q) should fail with ErrInvalidToken", token)
		}
	}
}

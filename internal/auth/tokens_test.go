package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenCodecAccessRoundTrip(t *testing.T) {
	codec := testCodec()

	signed, expires, err := codec.SignAccess(testUser())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !expires.After(time.Now()) {
		t.Fatalf("expected future expiry, got %v", expires)
	}

	claims, err := codec.VerifyAccess(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("expected subject user-1, got %q", claims.Subject)
	}
	if claims.Username != "alice" || claims.Email != "alice@example.com" || claims.DisplayName != "Alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenCodecRejectsExpiredAccess(t *testing.T) {
	clock := newTestClock()
	codec := NewTokenCodec("access-secret", "refresh-secret", time.Minute, time.Hour).WithNowFunc(clock.Now)

	signed, _, err := codec.SignAccess(testUser())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	clock.Advance(2 * time.Minute)

	if _, err := codec.VerifyAccess(signed); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected token expired, got %v", err)
	}
}

func TestTokenCodecRejectsWrongSecret(t *testing.T) {
	signed, _, err := testCodec().SignAccess(testUser())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	other := NewTokenCodec("different-secret", "refresh-secret", time.Minute, time.Hour)
	if _, err := other.VerifyAccess(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestTokenCodecKindsAreNotInterchangeable(t *testing.T) {
	codec := testCodec()

	refresh, _, err := codec.SignRefresh("user-1")
	if err != nil {
		t.Fatalf("sign refresh: %v", err)
	}
	if _, err := codec.VerifyAccess(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token must not verify as access token, got %v", err)
	}

	access, _, err := codec.SignAccess(testUser())
	if err != nil {
		t.Fatalf("sign access: %v", err)
	}
	if _, err := codec.VerifyRefresh(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token must not verify as refresh token, got %v", err)
	}
}

func TestTokenCodecRejectsGarbage(t *testing.T) {
	codec := testCodec()

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := codec.VerifyAccess(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: expected invalid token, got %v", token, err)
		}
	}
}

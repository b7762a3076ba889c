package utils

import (
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestSessionTokenRoundtrip(t *testing.T) {
	tok, err := NewSessionToken(testSecret, 42, "Alice", true, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := VerifySessionToken(testSecret, tok.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("expected user id 42, got %d", claims.UserID)
	}
	if claims.Name != "Alice" || !claims.IsAdmin {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if claims.Exp.IsZero() {
		t.Fatal("expected a populated expiry")
	}
}

func TestSessionTokenExpiry(t *testing.T) {
	tok, err := NewSessionToken(testSecret, 1, "Bob", false, -time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := VerifySessionToken(testSecret, tok.Token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestSessionTokenWrongSecret(t *testing.T) {
	tok, err := NewSessionToken(testSecret, 1, "Bob", false, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := VerifySessionToken("other-secret", tok.Token); err == nil {
		t.Fatal("expected wrong-secret token to fail")
	}
	if _, err := VerifySessionToken(testSecret, "not.a.jwt"); err == nil {
		t.Fatal("expected garbage token to fail")
	}
}

func TestResetTokenPurpose(t *testing.T) {
	reset, err := NewResetToken(testSecret, 7, 5*time.Minute)
	if err != nil {
		t.Fatalf("issue reset: %v", err)
	}

	// A reset token must never pass as a login session.
	if _, err := VerifySessionToken(testSecret, reset.Token); err == nil {
		t.Fatal("expected reset token to be rejected as session")
	}
	uid, err := VerifyResetToken(testSecret, reset.Token)
	if err != nil {
		t.Fatalf("verify reset: %v", err)
	}
	if uid != 7 {
		t.Fatalf("expected user id 7, got %d", uid)
	}

	// And a session token must never authorize a reset.
	session, err := NewSessionToken(testSecret, 7, "Eve", false, time.Hour)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	if _, err := VerifyResetToken(testSecret, session.Token); err == nil {
		t.Fatal("expected session token to be rejected as reset")
	}
}

func TestHashToken(t *testing.T) {
	a := HashToken("token-a")
	if a != HashToken("token-a") {
		t.Fatal("expected hashing to be deterministic")
	}
	if a == HashToken("token-b") {
		t.Fatal("expected different tokens to hash differently")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}

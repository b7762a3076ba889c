package utils

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashVerifyRoundtrip(t *testing.T) {
	hash, err := HashPassword("Sup3r$ecret", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword(hash, "Sup3r$ecret") {
		t.Fatal("expected correct password to verify")
	}
	if VerifyPassword(hash, "sup3r$ecret") {
		t.Fatal("expected wrong password to fail")
	}
	if VerifyPassword("not-a-hash", "Sup3r$ecret") {
		t.Fatal("expected garbage hash to fail")
	}
}

func TestValidatePassword(t *testing.T) {
	if msg := ValidatePassword("Abcdef1!"); msg != "" {
		t.Fatalf("expected valid password, got %q", msg)
	}

	cases := []struct {
		password string
		want     []string
	}{
		{"abcdefg1!", []string{"one uppercase letter"}},
		{"ABCDEFG1!", []string{"one lowercase letter"}},
		{"Abcdefgh!", []string{"one number"}},
		{"Abcdefg1", []string{"one special character"}},
		{"Ab1!", []string{"at least 8 characters"}},
		{"", []string{
			"at least 8 characters",
			"one uppercase letter",
			"one lowercase letter",
			"one number",
			"one special character",
		}},
	}
	for _, tc := range cases {
		msg := ValidatePassword(tc.password)
		if msg == "" {
			t.Fatalf("password %q: expected a violation message", tc.password)
		}
		if !strings.HasPrefix(msg, "Password must contain ") {
			t.Fatalf("password %q: unexpected message %q", tc.password, msg)
		}
		for _, frag := range tc.want {
			if !strings.Contains(msg, frag) {
				t.Fatalf("password %q: message %q missing %q", tc.password, msg, frag)
			}
		}
	}
}

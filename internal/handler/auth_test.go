package handler

import (
	"strings"
	"testing"
)

func TestValidateSignup(t *testing.T) {
	if errs := validateSignup(signupReq{Name: "Alice", Email: "alice@example.com", Password: "Abcdef1!"}); len(errs) != 0 {
		t.Fatalf("expected valid payload, got %v", errs)
	}
}

func TestValidateSignupCollectsAllViolations(t *testing.T) {
	errs := validateSignup(signupReq{Name: "  ", Email: "not-an-email", Password: "short"})
	if len(errs) != 3 {
		t.Fatalf("expected 3 field errors, got %d: %v", len(errs), errs)
	}

	byField := map[string]string{}
	for _, fe := range errs {
		byField[fe.Field] = fe.Message
	}
	if byField["name"] != "Name is required." {
		t.Fatalf("unexpected name message: %q", byField["name"])
	}
	if byField["email"] != "Invalid email format." {
		t.Fatalf("unexpected email message: %q", byField["email"])
	}
	if !strings.HasPrefix(byField["password"], "Password must contain ") {
		t.Fatalf("unexpected password message: %q", byField["password"])
	}
}

func TestValidateSignupTrimsEmail(t *testing.T) {
	errs := validateSignup(signupReq{Name: "Bob", Email: "  bob@example.com  ", Password: "Abcdef1!"})
	if len(errs) != 0 {
		t.Fatalf("expected surrounding whitespace to be tolerated, got %v", errs)
	}
}

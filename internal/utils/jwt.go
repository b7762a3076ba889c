package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random bytes for token ids and blob names
	"crypto/sha256" // SHA-256 hashing for the session deny-list
	"encoding/hex"  // hex encoding of random bytes and digests
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// SessionClaims is the identity carried by a login session token.  The
// server is otherwise stateless: a token is valid purely by signature and
// expiry, plus an optional deny-list lookup for revoked sessions.
type SessionClaims struct {
	UserID  uint64 // account id from the "sub" claim
	Name    string // display name snapshot at issue time
	IsAdmin bool   // admin flag snapshot at issue time
	Exp     time.Time
}

// SessionToken bundles a signed session JWT with its expiration time.
type SessionToken struct {
	Token string
	Exp   time.Time
}

// ErrInvalidToken is returned for tokens that fail signature, expiry or
// claim-shape checks.  Callers should not distinguish the reasons.
var ErrInvalidToken = errors.New("invalid or expired token")

// resetPurpose marks tokens issued solely for password resets.  A reset
// token must never be accepted as a login session and vice versa.
const resetPurpose = "reset"

// NewSessionToken builds and signs an HS256 JWT for a logged-in account.
// Claims: sub (account id), name, admin, exp, iat, jti.  The jti is random
// so two tokens issued in the same second still hash differently.
func NewSessionToken(secret string, userID uint64, name string, isAdmin bool, ttl time.Duration) (SessionToken, error) {
	exp := time.Now().UTC().Add(ttl)
	jti, err := RandomHex(8)
	if err != nil {
		return SessionToken{}, err
	}
	claims := jwt.MapClaims{
		"sub":   userID,
		"name":  name,
		"admin": isAdmin,
		"exp":   exp.Unix(),
		"iat":   time.Now().UTC().Unix(),
		"jti":   jti,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, Exp: exp}, nil
}

// NewResetToken signs a short-lived token used only to authorize a password
// reset.  It carries a narrower claim set than a session token: just the
// account id and a purpose marker.
func NewResetToken(secret string, userID uint64, ttl time.Duration) (SessionToken, error) {
	exp := time.Now().UTC().Add(ttl)
	claims := jwt.MapClaims{
		"sub":     userID,
		"purpose": resetPurpose,
		"exp":     exp.Unix(),
		"iat":     time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, Exp: exp}, nil
}

// VerifySessionToken parses and validates a session JWT and returns the
// identity claims.  Reset tokens are rejected here because they carry the
// purpose marker.
func VerifySessionToken(secret, raw string) (SessionClaims, error) {
	claims, err := parseHS256(secret, raw)
	if err != nil {
		return SessionClaims{}, err
	}
	if _, isReset := claims["purpose"]; isReset {
		return SessionClaims{}, ErrInvalidToken
	}
	sub, ok := claimUint64(claims, "sub")
	if !ok {
		return SessionClaims{}, ErrInvalidToken
	}
	name, _ := claims["name"].(string)
	admin, _ := claims["admin"].(bool)
	out := SessionClaims{UserID: sub, Name: name, IsAdmin: admin}
	if expVal, ok := claims["exp"].(float64); ok {
		out.Exp = time.Unix(int64(expVal), 0).UTC()
	}
	return out, nil
}

// VerifyResetToken validates a password-reset token and returns the account
// id it was issued for.
func VerifyResetToken(secret, raw string) (uint64, error) {
	claims, err := parseHS256(secret, raw)
	if err != nil {
		return 0, err
	}
	if p, _ := claims["purpose"].(string); p != resetPurpose {
		return 0, ErrInvalidToken
	}
	sub, ok := claimUint64(claims, "sub")
	if !ok {
		return 0, ErrInvalidToken
	}
	return sub, nil
}

// parseHS256 parses raw with the shared secret, enforcing the HMAC signing
// method so tokens signed with another algorithm are rejected outright.
func parseHS256(secret, raw string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// claimUint64 reads a numeric claim that the JSON decoder surfaces as
// float64 (or occasionally as a numeric string).
func claimUint64(claims jwt.MapClaims, key string) (uint64, bool) {
	switch v := claims[key].(type) {
	case float64:
		return uint64(v), true
	case uint64:
		return v, true
	case int64:
		return uint64(v), true
	}
	return 0, false
}

// HashToken returns the SHA-256 hex digest of a raw token.  Only the digest
// is ever stored in the deny-list so a leaked Redis snapshot cannot be
// replayed as a live session.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// RandomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

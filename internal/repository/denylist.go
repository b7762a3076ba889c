package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quangph-dn/rhythm-companion/internal/utils"
)

// TokenDenylist records revoked session tokens in Redis until their natural
// expiry. Session tokens are otherwise stateless, so this is the only
// server-side invalidation path: logout and account deletion push the
// presented token here and the auth middleware refuses it afterwards.
//
// The client may be nil when Redis is unreachable; every method then
// degrades to a no-op (revocation becomes client-side only, matching the
// behavior of a pure stateless deployment).
type TokenDenylist struct{ RDB *redis.Client }

func NewTokenDenylist(rdb *redis.Client) *TokenDenylist { return &TokenDenylist{RDB: rdb} }

const denyPrefix = "deny:"

// Revoke stores the token's hash with a TTL covering its remaining
// lifetime. Storing only the SHA-256 digest keeps live tokens out of Redis.
func (d *TokenDenylist) Revoke(ctx context.Context, rawToken string, exp time.Time) error {
	if d == nil || d.RDB == nil {
		return nil
	}
	ttl := time.Until(exp)
	if ttl <= 0 {
		return nil // already expired, nothing to deny
	}
	return d.RDB.Set(ctx, denyPrefix+utils.HashToken(rawToken), 1, ttl).Err()
}

// IsRevoked reports whether the token was revoked. Lookups fail open: a
// Redis error never locks out valid sessions.
func (d *TokenDenylist) IsRevoked(ctx context.Context, rawToken string) bool {
	if d == nil || d.RDB == nil {
		return false
	}
	n, err := d.RDB.Exists(ctx, denyPrefix+utils.HashToken(rawToken)).Result()
	if err != nil {
		return false
	}
	return n > 0
}

package model

import "time"

// Ban models a moderation suspension in the `bans` table.  A nil ExpiresAt
// means the ban is permanent.  At most one *active* ban may exist per
// account; expired rows stick around until the cleanup sweep removes them.
type Ban struct {
	ID        uint64     `json:"id"`
	UserID    uint64     `json:"userId"`
	Reason    string     `json:"reason"`
	IssuedAt  time.Time  `json:"issuedAt"`
	ExpiresAt *time.Time `json:"expiresAt"` // null = permanent
	BannedBy  uint64     `json:"bannedBy"`
}

// IsActive reports whether the ban is in force at the given instant.
// Permanent bans (no expiry) are always active.
func (b Ban) IsActive(now time.Time) bool {
	return b.ExpiresAt == nil || b.ExpiresAt.After(now)
}

// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// ModerationEvent is published whenever an admin action changes a player's
// standing or removes catalog content. It carries enough information for
// downstream consumers to build an audit trail without querying the
// primary database.
type ModerationEvent struct {
	Action    string     `json:"action"`
	BanID     uint64     `json:"ban_id,omitempty"`
	UserID    uint64     `json:"user_id,omitempty"`
	SongID    uint64     `json:"song_id,omitempty"`
	AdminID   uint64     `json:"admin_id"`
	Reason    string     `json:"reason,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	At        string     `json:"at"`
}

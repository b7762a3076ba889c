package model

import "time"

// Account represents a player or administrator record as stored in the
// `accounts` table.  The password hash stays internal; handlers define
// their own response types and never serialize it.
//
// Fields:
//  ID           – primary key identifier of the account.
//  Name         – display name shown in game and in the admin panel.
//  Email        – unique email address (uniqueness enforced by index).
//  PasswordHash – bcrypt hashed password.
//  IsAdmin      – whether the account may use moderation endpoints.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Account struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

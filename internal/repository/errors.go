// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver-specific errors. For example, ErrAlreadyBanned
// signals that a moderation action conflicts with an existing active
// ban, while ErrEmailExists surfaces the unique index violation on the
// accounts table.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when the requested entity does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert or update would duplicate an
// email address already registered to another account.
var ErrEmailExists = errors.New("email already registered")

// ErrAlreadyBanned is returned when a ban is created for an account that
// already has an active ban. Handlers should translate this into a 400
// response matching the moderation API contract.
var ErrAlreadyBanned = errors.New("user is already banned")

// isDuplicateKey reports whether err is the MySQL duplicate-entry error
// (1062) raised by a unique index. The unique indexes are the storage-level
// enforcement of the service's uniqueness invariants, so this check is how
// conflicts are detected instead of a read-then-write race.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}

// isDeadlock reports whether err is the MySQL deadlock error (1213). Row
// and gap locks taken by concurrent transactions can deadlock; the losing
// transaction is rolled back by the server and is safe to retry.
func isDeadlock(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1213")
}

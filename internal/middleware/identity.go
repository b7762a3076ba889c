package middleware

// identity.go holds small helpers shared across middleware files for
// reading the authenticated identity back out of the Echo context.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated account id stored by Authenticate.
// The boolean is false when the request is unauthenticated.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(CtxUserID).(uint64)
	return id, ok
}

// rateKeyUserID renders the identity for rate-limit keys; anonymous
// requests (signup, login) all share the "anon" bucket per client IP.
func rateKeyUserID(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}

package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireAdmin enforces that the authenticated account carries the admin
// flag. It assumes Authenticate already ran and stored the flag in the
// context; a missing or false flag yields 403. Moderation and catalog
// management routes wrap their handlers with this after Authenticate.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			isAdmin, ok := c.Get(CtxIsAdmin).(bool)
			if !ok || !isAdmin {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "Access denied. Admins only."})
			}
			return next(c)
		}
	}
}

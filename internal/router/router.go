package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/quangph-dn/rhythm-companion/internal/handler"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.  Unauthenticated
// operations live under /api/auth; the routes that need a session take the
// authenticate middleware.  The limiter guards the three endpoints an
// attacker can hammer without credentials: signup, login and reset-password.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, authenticate, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/signup", a.Signup, limiter)
	g.POST("/login", a.Login, limiter)
	g.POST("/reset-password", a.ResetPassword, limiter)
	// Logout never fails on a bad token; it always clears the cookie.
	g.POST("/logout", a.Logout)
	// Change-password does its own token handling because it accepts either
	// a live session or a reset token from the email link.
	g.POST("/change-password", a.ChangePassword)

	g.POST("/change-info", a.ChangeInfo, authenticate)
	g.GET("/me", a.Me, authenticate)
	g.GET("/account-info", a.AccountInfo, authenticate)
	g.DELETE("/", a.DeleteAccount, authenticate)
}

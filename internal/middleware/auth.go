package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/quangph-dn/rhythm-companion/internal/config"
	"github.com/quangph-dn/rhythm-companion/internal/repository"
	"github.com/quangph-dn/rhythm-companion/internal/utils"
)

// CookieName is the session cookie the frontend receives at login.
const CookieName = "token"

// Context keys populated by Authenticate for downstream handlers.
const (
	CtxUserID   = "user_id"
	CtxUserName = "user_name"
	CtxIsAdmin  = "is_admin"
	CtxToken    = "session_token" // raw token, needed by logout/delete to revoke it
	CtxTokenExp = "session_exp"
)

// Authenticate returns the access-control gate applied to every protected
// route. The chain per request is: extract token (cookie wins over the
// Authorization header) -> verify signature and expiry -> deny-list check
// -> re-fetch the account -> active-ban check. Bans gate every
// authenticated request, not just login, so a ban takes effect immediately
// instead of at the next login.
func Authenticate(cfg config.Config, accounts *repository.AccountRepo, bans *repository.BanRepo, deny *repository.TokenDenylist) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := ExtractToken(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Access denied. No token provided."})
			}

			claims, err := utils.VerifySessionToken(cfg.JWTSecret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid token."})
			}

			ctx := c.Request().Context()
			if deny.IsRevoked(ctx, raw) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid token."})
			}

			// The account behind the claims must still exist; a stale cookie
			// for a deleted account is cleared on the way out.
			acc, err := accounts.GetByID(ctx, claims.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					ClearSessionCookie(c, cfg)
					return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found."})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
			}

			ban, err := bans.GetActiveByUser(ctx, acc.ID)
			if err == nil {
				return c.JSON(http.StatusForbidden, echo.Map{
					"message":   "Your account is suspended: " + ban.Reason,
					"reason":    ban.Reason,
					"expiresAt": ban.ExpiresAt,
				})
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
			}

			c.Set(CtxUserID, acc.ID)
			c.Set(CtxUserName, acc.Name)
			c.Set(CtxIsAdmin, acc.IsAdmin)
			c.Set(CtxToken, raw)
			c.Set(CtxTokenExp, claims.Exp)
			return next(c)
		}
	}
}

// ExtractToken reads the session token from the cookie, falling back to a
// Bearer authorization header. The cookie takes precedence when both are
// present.
func ExtractToken(c echo.Context) string {
	if ck, err := c.Cookie(CookieName); err == nil && ck.Value != "" {
		return strings.TrimPrefix(ck.Value, "Bearer ")
	}
	auth := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// SetSessionCookie writes the http-only session cookie. SameSite is strict
// and Secure is enabled outside development.
func SetSessionCookie(c echo.Context, cfg config.Config, token string, exp time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  exp,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.IsProd(),
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookie expires the session cookie immediately.
func ClearSessionCookie(c echo.Context, cfg config.Config) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.IsProd(),
		SameSite: http.SameSiteStrictMode,
	})
}

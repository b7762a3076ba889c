package handler

import (
	"context"  // context with cancellation for DB calls
	"errors"   // sentinel error comparisons
	"log"      // best-effort cleanup logging
	"net/http" // HTTP status codes and primitives
	"net/mail" // email address format validation
	"strings"  // string trimming helpers
	"time"     // timeouts and token lifetimes

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/quangph-dn/rhythm-companion/internal/config"
	"github.com/quangph-dn/rhythm-companion/internal/middleware"
	"github.com/quangph-dn/rhythm-companion/internal/repository"
	"github.com/quangph-dn/rhythm-companion/internal/service"
	"github.com/quangph-dn/rhythm-companion/internal/utils"
)

// AuthHandler bundles dependencies for account and session endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Accounts *repository.AccountRepo
	Bans     *repository.BanRepo
	Status   *repository.GameStatusRepo
	Scores   *repository.ScoreRepo
	Deny     *repository.TokenDenylist
	Mailer   *service.Mailer
}

func NewAuthHandler(cfg config.Config, accounts *repository.AccountRepo, bans *repository.BanRepo,
	status *repository.GameStatusRepo, scores *repository.ScoreRepo,
	deny *repository.TokenDenylist, mailer *service.Mailer) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Accounts: accounts, Bans: bans, Status: status,
		Scores: scores, Deny: deny, Mailer: mailer}
}

// ----- DTOs -----

type signupReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type resetReq struct {
	Email string `json:"email"`
}
type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
type changeInfoReq struct {
	NewName  string `json:"newName"`
	NewEmail string `json:"newEmail"`
}

type userPart struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

// fieldError is one entry of the validation error list: which field failed
// and why, so the signup form can annotate inputs individually.
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

const invalidCredentialsMsg = "Email or password is incorrect."

// validateSignup collects every violated rule; an empty slice means the
// payload is acceptable.
func validateSignup(req signupReq) []fieldError {
	var errs []fieldError
	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, fieldError{Field: "name", Message: "Name is required."})
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		errs = append(errs, fieldError{Field: "email", Message: "Invalid email format."})
	}
	if msg := utils.ValidatePassword(req.Password); msg != "" {
		errs = append(errs, fieldError{Field: "password", Message: msg})
	}
	return errs
}

// Signup creates a player account plus its empty progress record. A failed
// progress insert rolls the freshly created account back out so signup is
// all-or-nothing.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body."})
	}
	if errs := validateSignup(req); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Validation failed.", "errors": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	email := strings.TrimSpace(req.Email)
	uid, err := h.Accounts.Create(ctx, strings.TrimSpace(req.Name), email, req.Password, false, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"message": "Signup failed.",
				"errors":  []fieldError{{Field: "email", Message: "Email already registered."}},
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}

	if err := h.Status.Ensure(ctx, uid); err != nil {
		// Compensate: the account must not exist without its progress row.
		if delErr := h.Accounts.Delete(ctx, uid); delErr != nil {
			log.Printf("signup rollback failed for account %d: %v", uid, delErr)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": "Signup failed while preparing game data. The account has been removed.",
			"error":   err.Error(),
		})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Account created successfully.",
		"user":    userPart{ID: uid, Name: strings.TrimSpace(req.Name), Email: email},
	})
}

// Login verifies credentials, refuses banned accounts, and issues the
// session both as an http-only cookie and in the response body for clients
// that prefer the Authorization header.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body."})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	acc, err := h.Accounts.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Identical answer for unknown email and wrong password.
			return c.JSON(http.StatusBadRequest, echo.Map{"message": invalidCredentialsMsg})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}
	if !utils.VerifyPassword(acc.PasswordHash, req.Password) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": invalidCredentialsMsg})
	}

	ban, err := h.Bans.GetActiveByUser(ctx, acc.ID)
	if err == nil {
		msg := "Your account is suspended: " + ban.Reason
		if ban.ExpiresAt != nil {
			msg += ". Expires at " + ban.ExpiresAt.UTC().Format(time.RFC3339)
		} else {
			msg += " (permanent)"
		}
		return c.JSON(http.StatusForbidden, echo.Map{
			"message":   msg,
			"reason":    ban.Reason,
			"expiresAt": ban.ExpiresAt,
		})
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}

	ttl := time.Duration(h.Cfg.SessionTTLHours) * time.Hour
	tok, err := utils.NewSessionToken(h.Cfg.JWTSecret, acc.ID, acc.Name, acc.IsAdmin, ttl)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to issue session.", "error": err.Error()})
	}
	middleware.SetSessionCookie(c, h.Cfg, tok.Token, tok.Exp)

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Login successful.",
		"user":    userPart{ID: acc.ID, Name: acc.Name, Email: acc.Email, IsAdmin: acc.IsAdmin},
		"token":   tok.Token,
	})
}

// Logout clears the session cookie. When the request still carries a valid
// token it is also pushed onto the deny-list so it cannot be replayed for
// the rest of its lifetime.
func (h *AuthHandler) Logout(c echo.Context) error {
	if raw := middleware.ExtractToken(c); raw != "" {
		if claims, err := utils.VerifySessionToken(h.Cfg.JWTSecret, raw); err == nil {
			if err := h.Deny.Revoke(c.Request().Context(), raw, claims.Exp); err != nil {
				log.Printf("logout: deny-list unavailable: %v", err)
			}
		}
	}
	middleware.ClearSessionCookie(c, h.Cfg)
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully."})
}

// ResetPassword emails a short-lived reset token to the account's address.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Email is required."})
	}
	email := strings.TrimSpace(req.Email)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	acc, err := h.Accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "No user found with email (" + email + ")."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}

	ttl := time.Duration(h.Cfg.ResetTTLMin) * time.Minute
	tok, err := utils.NewResetToken(h.Cfg.JWTSecret, acc.ID, ttl)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to issue reset token.", "error": err.Error()})
	}
	if err := h.Mailer.SendPasswordReset(email, tok.Token); err != nil {
		// Without a relay in development the token is handed back directly
		// so the flow stays testable end to end.
		if errors.Is(err, service.ErrMailerNotConfigured) && !h.Cfg.IsProd() {
			return c.JSON(http.StatusOK, echo.Map{
				"message": "SMTP is not configured; use the token below to change the password.",
				"token":   tok.Token,
			})
		}
		log.Printf("reset-password: send to %s failed: %v", email, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Failed to send reset email."})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "A password reset link has been sent to your email (" + email + ")."})
}

// ChangePassword sets a new password. It accepts either a login session
// (the current password must then be supplied and verified) or a reset
// token from the email link (no current password, the token itself is the
// proof). The route does its own token handling for that reason.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	raw := middleware.ExtractToken(c)
	if raw == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Access denied. No token provided."})
	}

	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body."})
	}
	if msg := utils.ValidatePassword(req.NewPassword); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Validation failed. " + msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var userID uint64
	requireCurrent := true
	if claims, err := utils.VerifySessionToken(h.Cfg.JWTSecret, raw); err == nil {
		if h.Deny.IsRevoked(ctx, raw) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid token."})
		}
		userID = claims.UserID
	} else if id, err := utils.VerifyResetToken(h.Cfg.JWTSecret, raw); err == nil {
		userID = id
		requireCurrent = false
	} else {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid token."})
	}

	acc, err := h.Accounts.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}
	if requireCurrent && !utils.VerifyPassword(acc.PasswordHash, req.CurrentPassword) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Current password is incorrect."})
	}

	if err := h.Accounts.UpdatePassword(ctx, acc.ID, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password updated successfully."})
}

// ChangeInfo updates display name and/or email for the logged-in account.
func (h *AuthHandler) ChangeInfo(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Access denied. No token provided."})
	}

	var req changeInfoReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body."})
	}
	newName := strings.TrimSpace(req.NewName)
	newEmail := strings.TrimSpace(req.NewEmail)
	if newEmail != "" {
		if _, err := mail.ParseAddress(newEmail); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid email format."})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Accounts.UpdateInfo(ctx, userID, newName, newEmail); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Email already in use."})
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}

	acc, err := h.Accounts.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Account info updated successfully.",
		"name":    acc.Name,
		"email":   acc.Email,
	})
}

// Me returns the identity claims attached by the auth middleware.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, _ := middleware.UserID(c)
	name, _ := c.Get(middleware.CtxUserName).(string)
	isAdmin, _ := c.Get(middleware.CtxIsAdmin).(bool)
	return c.JSON(http.StatusOK, echo.Map{
		"user": echo.Map{"id": userID, "name": name, "isAdmin": isAdmin},
	})
}

// AccountInfo returns the full profile of the logged-in account.
func (h *AuthHandler) AccountInfo(c echo.Context) error {
	userID, _ := middleware.UserID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	acc, err := h.Accounts.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			middleware.ClearSessionCookie(c, h.Cfg)
			return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": acc})
}

// DeleteAccount removes the account and cascades over its game data: score
// records first, then the progress row, then any ban rows. The presented
// session is revoked and the cookie cleared.
func (h *AuthHandler) DeleteAccount(c echo.Context) error {
	userID, _ := middleware.UserID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Accounts.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}

	// Best-effort cascade: a failure here is logged but the account is
	// already gone, so the response stays a success.
	if err := h.Scores.DeleteByUser(ctx, userID); err != nil {
		log.Printf("delete account %d: score cleanup failed: %v", userID, err)
	}
	if err := h.Status.Delete(ctx, userID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Printf("delete account %d: game status cleanup failed: %v", userID, err)
	}
	if err := h.Bans.DeleteForUser(ctx, userID); err != nil {
		log.Printf("delete account %d: ban cleanup failed: %v", userID, err)
	}

	if raw, ok := c.Get(middleware.CtxToken).(string); ok {
		if exp, ok := c.Get(middleware.CtxTokenExp).(time.Time); ok {
			if err := h.Deny.Revoke(ctx, raw, exp); err != nil {
				log.Printf("delete account %d: token revoke failed: %v", userID, err)
			}
		}
	}
	middleware.ClearSessionCookie(c, h.Cfg)

	return c.JSON(http.StatusOK, echo.Map{"message": "Account and related data deleted successfully."})
}

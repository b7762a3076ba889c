package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/quangph-dn/rhythm-companion/internal/middleware"
	"github.com/quangph-dn/rhythm-companion/internal/queue"
	"github.com/quangph-dn/rhythm-companion/internal/repository"
	"github.com/quangph-dn/rhythm-companion/internal/service"
)

// PlayerHandler serves the admin moderation endpoints: listing players,
// inspecting their progress and managing bans.
type PlayerHandler struct {
	Accounts *repository.AccountRepo
	Status   *repository.GameStatusRepo
	Bans     *repository.BanRepo
}

func NewPlayerHandler(accounts *repository.AccountRepo, status *repository.GameStatusRepo, bans *repository.BanRepo) *PlayerHandler {
	return &PlayerHandler{Accounts: accounts, Status: status, Bans: bans}
}

// ----- DTOs -----

type createBanReq struct {
	UserID    uint64     `json:"userId"`
	Reason    string     `json:"reason"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// updateBanReq keeps expiresAt as raw JSON so three payload shapes stay
// distinguishable: field absent (keep current expiry), null (make the ban
// permanent), and a timestamp (reschedule expiry).
type updateBanReq struct {
	BanID     uint64          `json:"banId"`
	Reason    string          `json:"reason"`
	ExpiresAt json.RawMessage `json:"expiresAt"`
}

// ListPlayers returns every non-admin account.
func (h *PlayerHandler) ListPlayers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	players, err := h.Accounts.ListPlayers(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"players": players})
}

// PlayerStatus loads one player's progress with both score records and the
// referenced song metadata expanded for the admin panel.
func (h *PlayerHandler) PlayerStatus(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid user ID."})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	gs, err := h.Status.Load(ctx, userID, true)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Game status not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, gs)
}

// GetBan returns the active ban for a player, 404 when none is in force.
func (h *PlayerHandler) GetBan(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid user ID."})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ban, err := h.Bans.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "No active bans found for this user."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, ban)
}

// CreateBan suspends a player. The target must exist and must not already
// carry an active ban.
func (h *PlayerHandler) CreateBan(c echo.Context) error {
	var req createBanReq
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid user ID."})
	}
	if req.Reason == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Reason is required."})
	}
	adminID, _ := middleware.UserID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Accounts.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}

	ban, err := h.Bans.Create(ctx, req.UserID, req.Reason, req.ExpiresAt, adminID)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyBanned) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "User is already banned."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}

	service.PublishModeration(ctx, queue.ModerationEvent{
		Action: "ban.created", BanID: ban.ID, UserID: ban.UserID,
		AdminID: adminID, Reason: ban.Reason, ExpiresAt: ban.ExpiresAt,
		At: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{"message": "Ban created successfully.", "ban": ban})
}

// UpdateBan changes reason and/or expiry of an existing ban in place.
func (h *PlayerHandler) UpdateBan(c echo.Context) error {
	var req updateBanReq
	if err := c.Bind(&req); err != nil || req.BanID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid ban ID."})
	}
	adminID, _ := middleware.UserID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var expiresAt *time.Time
	setExpiry := len(req.ExpiresAt) > 0
	if setExpiry && string(req.ExpiresAt) != "null" {
		var t time.Time
		if err := json.Unmarshal(req.ExpiresAt, &t); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid expiresAt value."})
		}
		expiresAt = &t
	}
	ban, err := h.Bans.Update(ctx, req.BanID, req.Reason, expiresAt, setExpiry)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Ban not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}

	service.PublishModeration(ctx, queue.ModerationEvent{
		Action: "ban.updated", BanID: ban.ID, UserID: ban.UserID,
		AdminID: adminID, Reason: ban.Reason, ExpiresAt: ban.ExpiresAt,
		At: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "Ban updated successfully.", "ban": ban})
}

// DeleteBan lifts a ban.
func (h *PlayerHandler) DeleteBan(c echo.Context) error {
	banID, err := strconv.ParseUint(c.Param("banId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid ban ID."})
	}
	adminID, _ := middleware.UserID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ban, err := h.Bans.GetByID(ctx, banID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Ban not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}
	if err := h.Bans.Delete(ctx, banID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Ban not found."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error.", "error": err.Error()})
	}

	service.PublishModeration(ctx, queue.ModerationEvent{
		Action: "ban.deleted", BanID: ban.ID, UserID: ban.UserID,
		AdminID: adminID, Reason: ban.Reason,
		At: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "Ban deleted successfully."})
}

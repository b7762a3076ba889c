package router

import (
	"github.com/labstack/echo/v4"

	"github.com/quangph-dn/rhythm-companion/internal/handler"
)

// RegisterPlayers registers the admin moderation endpoints under
// /api/player.  Every route requires a valid session and the admin flag;
// the ban endpoints are keyed by user for reads and by ban id for deletes,
// matching how the admin panel navigates.
func RegisterPlayers(e *echo.Echo, h *handler.PlayerHandler, authenticate, admin echo.MiddlewareFunc) {
	g := e.Group("/api/player", authenticate, admin)
	g.GET("/players", h.ListPlayers)
	g.GET("/status/:userId", h.PlayerStatus)
	g.GET("/ban/:userId", h.GetBan)
	g.POST("/ban", h.CreateBan)
	g.PUT("/ban", h.UpdateBan)
	g.DELETE("/ban/:banId", h.DeleteBan)
}

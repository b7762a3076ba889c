package router

import (
	"github.com/labstack/echo/v4"

	"github.com/quangph-dn/rhythm-companion/internal/handler"
)

// RegisterGameStatus registers the per-player progress endpoints.  Each
// player only ever touches their own row; the user id always comes from the
// session, never from the payload.
func RegisterGameStatus(e *echo.Echo, h *handler.GameStatusHandler, authenticate echo.MiddlewareFunc) {
	g := e.Group("/api/game-status", authenticate)
	g.GET("/", h.Load)
	g.PUT("/", h.Update)
	g.DELETE("/", h.Delete)
}

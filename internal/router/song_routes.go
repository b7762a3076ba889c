package router

import (
	"github.com/labstack/echo/v4"

	"github.com/quangph-dn/rhythm-companion/internal/handler"
)

// RegisterSongs wires the song catalog.  The browse endpoints are public so
// the game client can fetch the catalog before login; catalog GETs go
// through the Redis response cache.  File streaming bypasses the cache and
// reads straight from the blob store.  All write operations are admin-only.
func RegisterSongs(e *echo.Echo, h *handler.SongHandler, authenticate, admin, cache echo.MiddlewareFunc) {
	e.GET("/api/songs", h.GetAll, cache)
	e.GET("/api/songs/:id", h.GetByID, cache)
	e.GET("/api/songs/file/:filename", h.Download)

	g := e.Group("/api/songs", authenticate, admin)
	g.POST("/upload", h.Upload)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

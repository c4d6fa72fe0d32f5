package schema

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers schema introspection routes.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	g := e.Group("/api/schema")
	g.GET("", h.GetSchema)
	g.POST("/refresh", h.RefreshSchema)
	g.GET("/entity-types/:key", h.GetEntityType)
	g.GET("/relation-types/:key", h.GetRelationType)
}

package runtime

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers instance data routes.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	entities := e.Group("/api/entities/:typeKey")
	entities.GET("", h.ListEntities)
	entities.POST("", h.CreateEntity)
	entities.GET("/:id", h.GetEntity)
	entities.PATCH("/:id", h.UpdateEntity)
	entities.DELETE("/:id", h.DeleteEntity)
	entities.GET("/:id/neighbors", h.Neighbors)

	relations := e.Group("/api/relations/:typeKey")
	relations.GET("", h.ListRelations)
	relations.POST("", h.CreateRelation)
	relations.GET("/:id", h.GetRelation)
	relations.PATCH("/:id", h.UpdateRelation)
	relations.DELETE("/:id", h.DeleteRelation)

	e.POST("/api/search", h.Search)
	e.POST("/api/admin/wipe", h.Wipe)
}

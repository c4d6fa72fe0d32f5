package schema

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for schema introspection.
type Handler struct {
	cache *Cache
}

// NewHandler creates a new schema handler.
func NewHandler(cache *Cache) *Handler {
	return &Handler{cache: cache}
}

// GetSchema returns the full compiled schema.
// GET /api/schema
func (h *Handler) GetSchema(c echo.Context) error {
	snap, err := h.cache.Current(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SnapshotToResponse(snap))
}

// GetEntityType returns a single entity type by key.
// GET /api/schema/entity-types/:key
func (h *Handler) GetEntityType(c echo.Context) error {
	snap, err := h.cache.Current(c.Request().Context())
	if err != nil {
		return err
	}
	et, err := snap.EntityType(c.Param("key"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, EntityTypeDTO{
		Key:         et.Key,
		DisplayName: et.DisplayName,
		Description: et.Description,
		Properties:  propertiesToDTO(et.Properties),
	})
}

// GetRelationType returns a single relation type by key.
// GET /api/schema/relation-types/:key
func (h *Handler) GetRelationType(c echo.Context) error {
	snap, err := h.cache.Current(c.Request().Context())
	if err != nil {
		return err
	}
	rt, err := snap.RelationType(c.Param("key"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, RelationTypeDTO{
		Key:               rt.Key,
		DisplayName:       rt.DisplayName,
		Description:       rt.Description,
		FromEntityTypeKey: rt.FromEntityTypeKey,
		ToEntityTypeKey:   rt.ToEntityTypeKey,
		Properties:        propertiesToDTO(rt.Properties),
	})
}

// RefreshSchema rebuilds the snapshot and swaps it in.
// POST /api/schema/refresh
func (h *Handler) RefreshSchema(c echo.Context) error {
	snap, err := h.cache.Refresh(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SnapshotToResponse(snap))
}

package runtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/rawe/ontoforge-sub000/pkg/apperror"
)

// Handler handles HTTP requests for instance data.
type Handler struct {
	service *Service
}

// NewHandler creates a new runtime handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// decodeBody reads a JSON object body. Numbers are kept as json.Number
// so integer properties survive decoding without float rounding.
func decodeBody(c echo.Context) (map[string]any, error) {
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, apperror.NewBadRequest("Request body must be a JSON object")
	}
	return body, nil
}

func intQueryParam(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.NewBadRequest(fmt.Sprintf("Query parameter '%s' must be an integer", name))
	}
	return value, nil
}

func listOptionsFromRequest(c echo.Context) (ListOptions, error) {
	limit, err := intQueryParam(c, "limit", 0)
	if err != nil {
		return ListOptions{}, err
	}
	offset, err := intQueryParam(c, "offset", 0)
	if err != nil {
		return ListOptions{}, err
	}
	return ListOptions{
		Filters: ParseFilterParams(c.QueryParams()),
		Search:  c.QueryParam("q"),
		Sort:    c.QueryParam("sort"),
		Order:   c.QueryParam("order"),
		Limit:   limit,
		Offset:  offset,
	}, nil
}

// ListEntities lists entity instances with filtering and pagination.
// GET /api/entities/:typeKey
func (h *Handler) ListEntities(c echo.Context) error {
	opts, err := listOptionsFromRequest(c)
	if err != nil {
		return err
	}
	page, err := h.service.ListEntities(c.Request().Context(), c.Param("typeKey"), opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, EntityPageResponse(page))
}

// CreateEntity validates and stores a new entity instance.
// POST /api/entities/:typeKey
func (h *Handler) CreateEntity(c echo.Context) error {
	body, err := decodeBody(c)
	if err != nil {
		return err
	}
	rec, err := h.service.CreateEntity(c.Request().Context(), c.Param("typeKey"), body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, EntityDoc(*rec))
}

// GetEntity returns a single entity instance.
// GET /api/entities/:typeKey/:id
func (h *Handler) GetEntity(c echo.Context) error {
	rec, err := h.service.GetEntity(c.Request().Context(), c.Param("typeKey"), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, EntityDoc(*rec))
}

// UpdateEntity applies a partial update to an entity instance.
// PATCH /api/entities/:typeKey/:id
func (h *Handler) UpdateEntity(c echo.Context) error {
	body, err := decodeBody(c)
	if err != nil {
		return err
	}
	rec, err := h.service.UpdateEntity(c.Request().Context(), c.Param("typeKey"), c.Param("id"), body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, EntityDoc(*rec))
}

// DeleteEntity removes an entity and detaches its relations.
// DELETE /api/entities/:typeKey/:id
func (h *Handler) DeleteEntity(c echo.Context) error {
	if err := h.service.DeleteEntity(c.Request().Context(), c.Param("typeKey"), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Neighbors returns an entity with its connected relations and entities.
// GET /api/entities/:typeKey/:id/neighbors
func (h *Handler) Neighbors(c echo.Context) error {
	limit, err := intQueryParam(c, "limit", 0)
	if err != nil {
		return err
	}
	neighborhood, err := h.service.Neighbors(c.Request().Context(), c.Param("typeKey"), c.Param("id"), NeighborOptions{
		Direction:       c.QueryParam("direction"),
		RelationTypeKey: c.QueryParam("relationTypeKey"),
		Limit:           limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NeighborhoodToResponse(neighborhood))
}

// ListRelations lists relation instances with filtering and pagination.
// GET /api/relations/:typeKey
func (h *Handler) ListRelations(c echo.Context) error {
	opts, err := listOptionsFromRequest(c)
	if err != nil {
		return err
	}
	page, err := h.service.ListRelations(c.Request().Context(), c.Param("typeKey"), RelationListOptions{
		ListOptions:  opts,
		FromEntityID: c.QueryParam("fromEntityId"),
		ToEntityID:   c.QueryParam("toEntityId"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, RelationPageResponse(page))
}

// CreateRelation validates and stores a new relation instance.
// POST /api/relations/:typeKey
func (h *Handler) CreateRelation(c echo.Context) error {
	body, err := decodeBody(c)
	if err != nil {
		return err
	}
	rec, err := h.service.CreateRelation(c.Request().Context(), c.Param("typeKey"), body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, RelationDoc(*rec))
}

// GetRelation returns a single relation instance.
// GET /api/relations/:typeKey/:id
func (h *Handler) GetRelation(c echo.Context) error {
	rec, err := h.service.GetRelation(c.Request().Context(), c.Param("typeKey"), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, RelationDoc(*rec))
}

// UpdateRelation applies a partial property update. Endpoint ids in the
// body are ignored.
// PATCH /api/relations/:typeKey/:id
func (h *Handler) UpdateRelation(c echo.Context) error {
	body, err := decodeBody(c)
	if err != nil {
		return err
	}
	rec, err := h.service.UpdateRelation(c.Request().Context(), c.Param("typeKey"), c.Param("id"), body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, RelationDoc(*rec))
}

// DeleteRelation removes a relation instance. The endpoint entities are
// untouched.
// DELETE /api/relations/:typeKey/:id
func (h *Handler) DeleteRelation(c echo.Context) error {
	if err := h.service.DeleteRelation(c.Request().Context(), c.Param("typeKey"), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type searchRequest struct {
	Query         string         `json:"query"`
	EntityTypeKey string         `json:"entityTypeKey"`
	Limit         int            `json:"limit"`
	MinScore      *float64       `json:"minScore"`
	Filters       map[string]any `json:"filters"`
	Fields        []string       `json:"fields"`
}

func stringifyFilters(filters map[string]any) map[string]string {
	if len(filters) == 0 {
		return nil
	}
	out := make(map[string]string, len(filters))
	for key, value := range filters {
		switch v := value.(type) {
		case string:
			out[key] = v
		case json.Number:
			out[key] = v.String()
		case bool:
			out[key] = strconv.FormatBool(v)
		default:
			out[key] = fmt.Sprint(v)
		}
	}
	return out
}

// Search runs a semantic similarity search.
// POST /api/search
func (h *Handler) Search(c echo.Context) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()
	var req searchRequest
	if err := dec.Decode(&req); err != nil {
		return apperror.NewBadRequest("Request body must be a JSON object")
	}

	hits, err := h.service.Search(c.Request().Context(), SearchParams{
		Query:    req.Query,
		TypeKey:  req.EntityTypeKey,
		Limit:    req.Limit,
		MinScore: req.MinScore,
		Filters:  stringifyFilters(req.Filters),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SearchToResponse(req.Query, hits, req.Fields))
}

// Wipe deletes all instance data, keeping the schema.
// POST /api/admin/wipe
func (h *Handler) Wipe(c echo.Context) error {
	result, err := h.service.Wipe(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, WipeResponse{
		OntologyKey:      result.OntologyKey,
		EntitiesDeleted:  result.EntitiesDeleted,
		RelationsDeleted: result.RelationsDeleted,
	})
}

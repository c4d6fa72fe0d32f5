package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rawe/ontoforge-sub000/domain/runtime"
	"github.com/rawe/ontoforge-sub000/domain/schema"
	"github.com/rawe/ontoforge-sub000/pkg/logger"
)

// ToolHandler exposes the runtime service as MCP tools. Tool errors are
// returned as tool results, not protocol errors, so the calling model
// can read and react to them.
type ToolHandler struct {
	service *runtime.Service
	cache   *schema.Cache
	log     *slog.Logger
}

// NewToolHandler creates a new ToolHandler.
func NewToolHandler(service *runtime.Service, cache *schema.Cache, log *slog.Logger) *ToolHandler {
	return &ToolHandler{
		service: service,
		cache:   cache,
		log:     log.With(logger.Scope("mcp")),
	}
}

// wrapResult marshals data as indented JSON into a tool result.
func wrapResult(data any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// errResult creates an error tool result (non-fatal, returned to the LLM).
func errResult(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func argInt(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return fallback
}

func argObject(args map[string]any, key string) map[string]any {
	m, _ := args[key].(map[string]any)
	return m
}

func argStringSlice(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// argFilters stringifies a filters object so numeric and boolean JSON
// values go through the same coercion path as query parameters.
func argFilters(args map[string]any, key string) map[string]string {
	raw := argObject(args, key)
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case bool:
			out[k] = strconv.FormatBool(val)
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case json.Number:
			out[k] = val.String()
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}

func projectDocs(docs []map[string]any, fields []string) []map[string]any {
	if len(fields) == 0 {
		return docs
	}
	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		out = append(out, runtime.ProjectFields(doc, fields))
	}
	return out
}

func (h *ToolHandler) GetSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := h.cache.Current(ctx)
	if err != nil {
		return errResult(err)
	}
	return wrapResult(schema.SnapshotToResponse(snap))
}

func (h *ToolHandler) ListEntities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	page, err := h.service.ListEntities(ctx, argString(args, "entity_type_key"), runtime.ListOptions{
		Filters: argFilters(args, "filters"),
		Search:  argString(args, "search"),
		Sort:    argString(args, "sort"),
		Order:   argString(args, "order"),
		Limit:   argInt(args, "limit", 0),
		Offset:  argInt(args, "offset", 0),
	})
	if err != nil {
		return errResult(err)
	}
	resp := runtime.EntityPageResponse(page)
	resp.Items = projectDocs(resp.Items, argStringSlice(args, "fields"))
	return wrapResult(resp)
}

func (h *ToolHandler) GetEntity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	rec, err := h.service.GetEntity(ctx, argString(args, "entity_type_key"), argString(args, "entity_id"))
	if err != nil {
		return errResult(err)
	}
	return wrapResult(runtime.ProjectFields(runtime.EntityDoc(*rec), argStringSlice(args, "fields")))
}

func (h *ToolHandler) CreateEntity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	rec, err := h.service.CreateEntity(ctx, argString(args, "entity_type_key"), argObject(args, "properties"))
	if err != nil {
		return errResult(err)
	}
	return wrapResult(runtime.EntityDoc(*rec))
}

func (h *ToolHandler) UpdateEntity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	rec, err := h.service.UpdateEntity(ctx, argString(args, "entity_type_key"), argString(args, "entity_id"), argObject(args, "properties"))
	if err != nil {
		return errResult(err)
	}
	return wrapResult(runtime.EntityDoc(*rec))
}

func (h *ToolHandler) DeleteEntity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id := argString(args, "entity_id")
	if err := h.service.DeleteEntity(ctx, argString(args, "entity_type_key"), id); err != nil {
		return errResult(err)
	}
	return wrapResult(map[string]string{"message": fmt.Sprintf("Entity '%s' deleted successfully.", id)})
}

func (h *ToolHandler) CreateRelation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	body := map[string]any{}
	for k, v := range argObject(args, "properties") {
		body[k] = v
	}
	body["fromEntityId"] = argString(args, "from_entity_id")
	body["toEntityId"] = argString(args, "to_entity_id")

	rec, err := h.service.CreateRelation(ctx, argString(args, "relation_type_key"), body)
	if err != nil {
		return errResult(err)
	}
	return wrapResult(runtime.RelationDoc(*rec))
}

func (h *ToolHandler) ListRelations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	page, err := h.service.ListRelations(ctx, argString(args, "relation_type_key"), runtime.RelationListOptions{
		ListOptions: runtime.ListOptions{
			Filters: argFilters(args, "filters"),
			Sort:    argString(args, "sort"),
			Order:   argString(args, "order"),
			Limit:   argInt(args, "limit", 0),
			Offset:  argInt(args, "offset", 0),
		},
		FromEntityID: argString(args, "from_entity_id"),
		ToEntityID:   argString(args, "to_entity_id"),
	})
	if err != nil {
		return errResult(err)
	}
	return wrapResult(runtime.RelationPageResponse(page))
}

func (h *ToolHandler) GetRelation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	rec, err := h.service.GetRelation(ctx, argString(args, "relation_type_key"), argString(args, "relation_id"))
	if err != nil {
		return errResult(err)
	}
	return wrapResult(runtime.RelationDoc(*rec))
}

func (h *ToolHandler) UpdateRelation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	rec, err := h.service.UpdateRelation(ctx, argString(args, "relation_type_key"), argString(args, "relation_id"), argObject(args, "properties"))
	if err != nil {
		return errResult(err)
	}
	return wrapResult(runtime.RelationDoc(*rec))
}

func (h *ToolHandler) DeleteRelation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id := argString(args, "relation_id")
	if err := h.service.DeleteRelation(ctx, argString(args, "relation_type_key"), id); err != nil {
		return errResult(err)
	}
	return wrapResult(map[string]string{"message": fmt.Sprintf("Relation '%s' deleted successfully.", id)})
}

func (h *ToolHandler) GetNeighbors(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	neighborhood, err := h.service.Neighbors(ctx, argString(args, "entity_type_key"), argString(args, "entity_id"), runtime.NeighborOptions{
		Direction:       argString(args, "direction"),
		RelationTypeKey: argString(args, "relation_type_key"),
		Limit:           argInt(args, "limit", 0),
	})
	if err != nil {
		return errResult(err)
	}
	resp := runtime.NeighborhoodToResponse(neighborhood)
	if fields := argStringSlice(args, "fields"); len(fields) > 0 {
		resp.Entity = runtime.ProjectFields(resp.Entity, fields)
		for i := range resp.Neighbors {
			resp.Neighbors[i].Entity = runtime.ProjectFields(resp.Neighbors[i].Entity, fields)
		}
	}
	return wrapResult(resp)
}

func (h *ToolHandler) SemanticSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	query := argString(args, "query")
	hits, err := h.service.Search(ctx, runtime.SearchParams{
		Query:   query,
		TypeKey: argString(args, "entity_type_key"),
		Limit:   argInt(args, "limit", 0),
		Filters: argFilters(args, "filters"),
	})
	if err != nil {
		return errResult(err)
	}
	return wrapResult(runtime.SearchToResponse(query, hits, argStringSlice(args, "fields")))
}

func (h *ToolHandler) WipeData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.service.Wipe(ctx)
	if err != nil {
		return errResult(err)
	}
	return wrapResult(runtime.WipeResponse{
		OntologyKey:      result.OntologyKey,
		EntitiesDeleted:  result.EntitiesDeleted,
		RelationsDeleted: result.RelationsDeleted,
	})
}

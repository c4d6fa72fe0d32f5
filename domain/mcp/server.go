package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rawe/ontoforge-sub000/internal/version"
)

// NewMCPServer builds the MCP server with the runtime tool set.
func NewMCPServer(h *ToolHandler) *server.MCPServer {
	s := server.NewMCPServer(
		"ontoforge-runtime",
		version.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool("get_schema",
		mcp.WithDescription("Understand the ontology before creating data. Shows available entity types, relation types, and their property definitions including data types and required flags. Call this first."),
	), h.GetSchema)

	s.AddTool(mcp.NewTool("create_entity",
		mcp.WithDescription("Create a new entity instance. Properties must conform to the schema: required properties must be present, types must match the property definitions."),
		mcp.WithString("entity_type_key", mcp.Required(), mcp.Description("Entity type to instantiate")),
		mcp.WithObject("properties", mcp.Required(), mcp.Description("Property values keyed by property key")),
	), h.CreateEntity)

	s.AddTool(mcp.NewTool("list_entities",
		mcp.WithDescription("List entities of a type with optional filtering, search, sorting, and pagination. Use 'search' for substring matching across all string properties. Use 'filters' for property-based filtering with operators: exact match (\"name\": \"Alice\"), greater than (\"age__gt\": \"25\"), greater or equal (\"__gte\"), less than (\"__lt\"), less or equal (\"__lte\"), contains (\"name__contains\": \"ali\"). Use 'fields' to select which properties to include. Only listed fields plus _id are returned; omit for all fields."),
		mcp.WithString("entity_type_key", mcp.Required(), mcp.Description("Entity type to list")),
		mcp.WithString("search", mcp.Description("Substring match across string properties")),
		mcp.WithObject("filters", mcp.Description("Property filters, optionally with __op suffixes")),
		mcp.WithString("sort", mcp.Description("Sort field: a property key, _createdAt or _updatedAt (default _createdAt)")),
		mcp.WithString("order", mcp.Description("asc or desc (default asc)")),
		mcp.WithNumber("limit", mcp.Description("Page size, max 200 (default 50)")),
		mcp.WithNumber("offset", mcp.Description("Items to skip (default 0)")),
		mcp.WithArray("fields", mcp.Description("Property keys to include in results")),
	), h.ListEntities)

	s.AddTool(mcp.NewTool("get_entity",
		mcp.WithDescription("Retrieve a specific entity by its _id. Use 'fields' to select which properties to include. Only listed fields plus _id are returned; omit for all fields."),
		mcp.WithString("entity_type_key", mcp.Required()),
		mcp.WithString("entity_id", mcp.Required()),
		mcp.WithArray("fields", mcp.Description("Property keys to include")),
	), h.GetEntity)

	s.AddTool(mcp.NewTool("update_entity",
		mcp.WithDescription("Partial update: only provided properties change. Set a property to null to remove it (fails for required properties)."),
		mcp.WithString("entity_type_key", mcp.Required()),
		mcp.WithString("entity_id", mcp.Required()),
		mcp.WithObject("properties", mcp.Required()),
	), h.UpdateEntity)

	s.AddTool(mcp.NewTool("delete_entity",
		mcp.WithDescription("Delete an entity and all its connected relations."),
		mcp.WithString("entity_type_key", mcp.Required()),
		mcp.WithString("entity_id", mcp.Required()),
	), h.DeleteEntity)

	s.AddTool(mcp.NewTool("create_relation",
		mcp.WithDescription("Create a relation between two entities. The entity types must match the relation type's source/target definition."),
		mcp.WithString("relation_type_key", mcp.Required()),
		mcp.WithString("from_entity_id", mcp.Required()),
		mcp.WithString("to_entity_id", mcp.Required()),
		mcp.WithObject("properties", mcp.Description("Relation property values")),
	), h.CreateRelation)

	s.AddTool(mcp.NewTool("list_relations",
		mcp.WithDescription("List relations of a type. Optionally filter by source or target entity."),
		mcp.WithString("relation_type_key", mcp.Required()),
		mcp.WithString("from_entity_id", mcp.Description("Only relations starting at this entity")),
		mcp.WithString("to_entity_id", mcp.Description("Only relations ending at this entity")),
		mcp.WithObject("filters", mcp.Description("Property filters, optionally with __op suffixes")),
		mcp.WithString("sort"),
		mcp.WithString("order"),
		mcp.WithNumber("limit"),
		mcp.WithNumber("offset"),
	), h.ListRelations)

	s.AddTool(mcp.NewTool("get_relation",
		mcp.WithDescription("Retrieve a specific relation by its _id."),
		mcp.WithString("relation_type_key", mcp.Required()),
		mcp.WithString("relation_id", mcp.Required()),
	), h.GetRelation)

	s.AddTool(mcp.NewTool("update_relation",
		mcp.WithDescription("Partial update of relation properties. Cannot change connected entities: delete and recreate instead."),
		mcp.WithString("relation_type_key", mcp.Required()),
		mcp.WithString("relation_id", mcp.Required()),
		mcp.WithObject("properties", mcp.Required()),
	), h.UpdateRelation)

	s.AddTool(mcp.NewTool("delete_relation",
		mcp.WithDescription("Delete a relation. Connected entities are unaffected."),
		mcp.WithString("relation_type_key", mcp.Required()),
		mcp.WithString("relation_id", mcp.Required()),
	), h.DeleteRelation)

	s.AddTool(mcp.NewTool("get_neighbors",
		mcp.WithDescription("Explore an entity's local neighborhood: what it is connected to and how. Returns the center entity plus connected entities with their connecting relations. Use 'fields' to project entity properties."),
		mcp.WithString("entity_type_key", mcp.Required()),
		mcp.WithString("entity_id", mcp.Required()),
		mcp.WithString("direction", mcp.Description("outgoing, incoming or both (default both)")),
		mcp.WithString("relation_type_key", mcp.Description("Only follow this relation type")),
		mcp.WithNumber("limit", mcp.Description("Max neighbors, max 200 (default 50)")),
		mcp.WithArray("fields", mcp.Description("Entity property keys to include")),
	), h.GetNeighbors)

	s.AddTool(mcp.NewTool("semantic_search",
		mcp.WithDescription("Search entity instances by semantic similarity to a natural language query. Returns entities ranked by relevance with similarity scores. Use 'filters' for property-based filtering on results. Use 'fields' to select which entity properties to include; omit for all fields."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural language search query")),
		mcp.WithString("entity_type_key", mcp.Description("Entity type to search; omit to search all types")),
		mcp.WithNumber("limit", mcp.Description("Max results, max 100 (default 10)")),
		mcp.WithObject("filters", mcp.Description("Property filters applied to results")),
		mcp.WithArray("fields", mcp.Description("Entity property keys to include")),
	), h.SemanticSearch)

	s.AddTool(mcp.NewTool("wipe_data",
		mcp.WithDescription("DESTRUCTIVE. Delete ALL instance data for this ontology. The schema is preserved, only entity and relation instances are removed. Cannot be undone."),
	), h.WipeData)

	return s
}

// NewHTTPServer wraps the MCP server in a stateless streamable HTTP
// transport for mounting into echo.
func NewHTTPServer(s *server.MCPServer) *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(s, server.WithStateLess(true))
}

package runtime

import (
	"time"
)

// Instance documents are flat maps: system fields prefixed with an
// underscore, then the declared property values. The embedding never
// appears in a document.

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// EntityDoc renders an entity record as a response document.
func EntityDoc(rec EntityRecord) map[string]any {
	doc := map[string]any{
		"_id":            rec.ID,
		"_entityTypeKey": rec.TypeKey,
		"_createdAt":     formatTimestamp(rec.CreatedAt),
		"_updatedAt":     formatTimestamp(rec.UpdatedAt),
	}
	for key, value := range rec.Properties {
		doc[key] = value
	}
	return doc
}

// RelationDoc renders a relation record as a response document.
func RelationDoc(rec RelationRecord) map[string]any {
	doc := map[string]any{
		"_id":              rec.ID,
		"_relationTypeKey": rec.TypeKey,
		"fromEntityId":     rec.FromEntityID,
		"toEntityId":       rec.ToEntityID,
		"_createdAt":       formatTimestamp(rec.CreatedAt),
		"_updatedAt":       formatTimestamp(rec.UpdatedAt),
	}
	for key, value := range rec.Properties {
		doc[key] = value
	}
	return doc
}

// ProjectFields trims a document to the requested fields. System
// identity fields survive projection so results stay addressable.
func ProjectFields(doc map[string]any, fields []string) map[string]any {
	if len(fields) == 0 {
		return doc
	}
	out := map[string]any{
		"_id":            doc["_id"],
		"_entityTypeKey": doc["_entityTypeKey"],
	}
	for _, field := range fields {
		if value, ok := doc[field]; ok {
			out[field] = value
		}
	}
	return out
}

// PaginatedResponse is the standard list envelope.
type PaginatedResponse struct {
	Items  []map[string]any `json:"items"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

func EntityPageResponse(page *Page[EntityRecord]) PaginatedResponse {
	items := make([]map[string]any, 0, len(page.Items))
	for _, rec := range page.Items {
		items = append(items, EntityDoc(rec))
	}
	return PaginatedResponse{Items: items, Total: page.Total, Limit: page.Limit, Offset: page.Offset}
}

func RelationPageResponse(page *Page[RelationRecord]) PaginatedResponse {
	items := make([]map[string]any, 0, len(page.Items))
	for _, rec := range page.Items {
		items = append(items, RelationDoc(rec))
	}
	return PaginatedResponse{Items: items, Total: page.Total, Limit: page.Limit, Offset: page.Offset}
}

// NeighborEntry pairs a connecting relation with the entity on its far
// side. The relation document carries a direction marker relative to the
// queried entity.
type NeighborEntry struct {
	Relation map[string]any `json:"relation"`
	Entity   map[string]any `json:"entity"`
}

type NeighborhoodResponse struct {
	Entity    map[string]any  `json:"entity"`
	Neighbors []NeighborEntry `json:"neighbors"`
}

func NeighborhoodToResponse(n *Neighborhood) NeighborhoodResponse {
	neighbors := make([]NeighborEntry, 0, len(n.Neighbors))
	for _, rec := range n.Neighbors {
		relation := RelationDoc(rec.Relation)
		relation["direction"] = string(rec.Direction)
		neighbors = append(neighbors, NeighborEntry{
			Relation: relation,
			Entity:   EntityDoc(rec.Entity),
		})
	}
	return NeighborhoodResponse{Entity: EntityDoc(n.Entity), Neighbors: neighbors}
}

// SearchResultItem is one scored hit.
type SearchResultItem struct {
	Entity map[string]any `json:"entity"`
	Score  float64        `json:"score"`
}

type SearchResponse struct {
	Query   string             `json:"query"`
	Total   int                `json:"total"`
	Results []SearchResultItem `json:"results"`
}

func SearchToResponse(query string, hits []ScoredEntity, fields []string) SearchResponse {
	results := make([]SearchResultItem, 0, len(hits))
	for _, hit := range hits {
		results = append(results, SearchResultItem{
			Entity: ProjectFields(EntityDoc(hit.Entity), fields),
			Score:  hit.Score,
		})
	}
	return SearchResponse{Query: query, Total: len(results), Results: results}
}

type WipeResponse struct {
	OntologyKey      string `json:"ontologyKey"`
	EntitiesDeleted  int64  `json:"entitiesDeleted"`
	RelationsDeleted int64  `json:"relationsDeleted"`
}

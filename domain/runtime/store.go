package runtime

import (
	"context"
	"time"

	"github.com/rawe/ontoforge-sub000/domain/schema"
)

// Direction identifies a traversal direction relative to the center entity.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
	DirectionBoth     Direction = "both"
)

// ParseDirection validates a direction string, defaulting to both.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "":
		return DirectionBoth, true
	case "outgoing", "incoming", "both":
		return Direction(s), true
	default:
		return "", false
	}
}

// EntityRecord is a stored entity instance.
type EntityRecord struct {
	ID         string
	TypeKey    string
	Properties map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RelationRecord is a stored relation instance.
type RelationRecord struct {
	ID           string
	TypeKey      string
	FromEntityID string
	ToEntityID   string
	Properties   map[string]any
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NeighborRecord pairs a relation with the entity it connects to, tagged
// with the direction it was traversed in.
type NeighborRecord struct {
	Relation  RelationRecord
	Entity    EntityRecord
	Direction Direction
}

// ScoredEntity is a similarity search hit.
type ScoredEntity struct {
	Entity EntityRecord
	Score  float64
}

// ListQuery describes an entity list request.
type ListQuery struct {
	TypeKey    string
	Predicates []Predicate
	// Free-text search applied across the named string properties
	Search      string
	SearchProps []string
	Sort        schema.SortField
	Order       string // "asc" or "desc"
	Limit       int
	Offset      int
}

// RelationListQuery describes a relation list request.
type RelationListQuery struct {
	TypeKey      string
	Predicates   []Predicate
	FromEntityID string
	ToEntityID   string
	Sort         schema.SortField
	Order        string
	Limit        int
	Offset       int
}

// Store is the persistent graph store consumed by the runtime service.
// Implementations are agnostic to the schema: they operate on type keys
// and generic property bags. Lookups return nil (not an error) for absent
// instances; the caller decides how absence is reported.
type Store interface {
	ListEntities(ctx context.Context, q ListQuery) ([]EntityRecord, int, error)
	GetEntity(ctx context.Context, typeKey, id string) (*EntityRecord, error)
	GetEntityByID(ctx context.Context, id string) (*EntityRecord, error)
	CreateEntity(ctx context.Context, rec *EntityRecord, embedding []float32) error
	UpdateEntity(ctx context.Context, typeKey, id string, set map[string]any, remove []string) (*EntityRecord, error)
	SetEntityEmbedding(ctx context.Context, id string, embedding []float32) error
	DeleteEntity(ctx context.Context, typeKey, id string) (bool, error)

	ListRelations(ctx context.Context, q RelationListQuery) ([]RelationRecord, int, error)
	GetRelation(ctx context.Context, typeKey, id string) (*RelationRecord, error)
	CreateRelation(ctx context.Context, rec *RelationRecord) error
	UpdateRelation(ctx context.Context, typeKey, id string, set map[string]any, remove []string) (*RelationRecord, error)
	DeleteRelation(ctx context.Context, typeKey, id string) (bool, error)

	Neighbors(ctx context.Context, entityID string, direction Direction, relationTypeKey string, limit int) ([]NeighborRecord, error)
	SearchEntities(ctx context.Context, typeKey string, embedding []float32, limit int) ([]ScoredEntity, error)

	WipeInstances(ctx context.Context) (entitiesDeleted, relationsDeleted int64, err error)
}

package schema

import (
	"time"

	"github.com/uptrace/bun"
)

// OntologyRow represents the onto.ontology table
type OntologyRow struct {
	bun.BaseModel `bun:"table:onto.ontology,alias:o"`

	ID          string    `bun:"id,pk,type:uuid"`
	Key         string    `bun:"key,notnull"`
	Name        string    `bun:"name,notnull"`
	Description string    `bun:"description,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:now()"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:now()"`
}

// EntityTypeRow represents the onto.entity_types table
type EntityTypeRow struct {
	bun.BaseModel `bun:"table:onto.entity_types,alias:et"`

	ID          string    `bun:"id,pk,type:uuid"`
	Key         string    `bun:"key,notnull"`
	DisplayName string    `bun:"display_name,notnull"`
	Description string    `bun:"description,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:now()"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:now()"`
}

// RelationTypeRow represents the onto.relation_types table
type RelationTypeRow struct {
	bun.BaseModel `bun:"table:onto.relation_types,alias:rt"`

	ID                string    `bun:"id,pk,type:uuid"`
	Key               string    `bun:"key,notnull"`
	DisplayName       string    `bun:"display_name,notnull"`
	Description       string    `bun:"description,notnull"`
	FromEntityTypeKey string    `bun:"from_entity_type_key,notnull"`
	ToEntityTypeKey   string    `bun:"to_entity_type_key,notnull"`
	CreatedAt         time.Time `bun:"created_at,notnull,default:now()"`
	UpdatedAt         time.Time `bun:"updated_at,notnull,default:now()"`
}

// PropertyDefRow represents the onto.property_defs table
type PropertyDefRow struct {
	bun.BaseModel `bun:"table:onto.property_defs,alias:pd"`

	ID           string    `bun:"id,pk,type:uuid"`
	OwnerKind    string    `bun:"owner_kind,notnull"` // 'entity' or 'relation'
	OwnerKey     string    `bun:"owner_key,notnull"`
	Key          string    `bun:"key,notnull"`
	DisplayName  string    `bun:"display_name,notnull"`
	Description  string    `bun:"description,notnull"`
	DataType     string    `bun:"data_type,notnull"`
	Required     bool      `bun:"required,notnull"`
	DefaultValue *string   `bun:"default_value"`
	Position     int       `bun:"position,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:now()"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:now()"`
}

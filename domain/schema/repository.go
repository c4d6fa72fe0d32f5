package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/rawe/ontoforge-sub000/internal/config"
	"github.com/rawe/ontoforge-sub000/pkg/apperror"
)

// Repository loads schema definitions from Postgres.
type Repository struct {
	db          bun.IDB
	ontologyKey string
}

// NewRepository creates a schema repository scoped to the configured ontology.
func NewRepository(db bun.IDB, cfg *config.Config) *Repository {
	return &Repository{db: db, ontologyKey: cfg.Ontology.Key}
}

// Load reads the full schema and compiles it into a Snapshot.
func (r *Repository) Load(ctx context.Context) (*Snapshot, error) {
	var ont OntologyRow
	err := r.db.NewSelect().
		Model(&ont).
		Where("o.key = ?", r.ontologyKey).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrNotFound.WithMessage(
			fmt.Sprintf("Ontology '%s' not found or has no schema loaded", r.ontologyKey))
	}
	if err != nil {
		return nil, fmt.Errorf("load ontology: %w", err)
	}

	var entityRows []EntityTypeRow
	if err := r.db.NewSelect().
		Model(&entityRows).
		Order("et.key ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("load entity types: %w", err)
	}

	var relationRows []RelationTypeRow
	if err := r.db.NewSelect().
		Model(&relationRows).
		Order("rt.key ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("load relation types: %w", err)
	}

	var propRows []PropertyDefRow
	if err := r.db.NewSelect().
		Model(&propRows).
		Order("pd.owner_kind ASC", "pd.owner_key ASC", "pd.position ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("load property definitions: %w", err)
	}

	entityProps := make(map[string][]PropertyDef)
	relationProps := make(map[string][]PropertyDef)
	for _, row := range propRows {
		dt, err := ParseDataType(row.DataType)
		if err != nil {
			return nil, fmt.Errorf("property %s.%s: %w", row.OwnerKey, row.Key, err)
		}
		def := PropertyDef{
			Key:          row.Key,
			DisplayName:  row.DisplayName,
			Description:  row.Description,
			DataType:     dt,
			Required:     row.Required,
			DefaultValue: row.DefaultValue,
		}
		switch row.OwnerKind {
		case "entity":
			entityProps[row.OwnerKey] = append(entityProps[row.OwnerKey], def)
		case "relation":
			relationProps[row.OwnerKey] = append(relationProps[row.OwnerKey], def)
		}
	}

	entityTypes := make([]*EntityTypeDef, 0, len(entityRows))
	for _, row := range entityRows {
		entityTypes = append(entityTypes, &EntityTypeDef{
			Key:         row.Key,
			DisplayName: row.DisplayName,
			Description: row.Description,
			Properties:  NewPropertySet(entityProps[row.Key]),
		})
	}

	relationTypes := make([]*RelationTypeDef, 0, len(relationRows))
	for _, row := range relationRows {
		relationTypes = append(relationTypes, &RelationTypeDef{
			Key:               row.Key,
			DisplayName:       row.DisplayName,
			Description:       row.Description,
			FromEntityTypeKey: row.FromEntityTypeKey,
			ToEntityTypeKey:   row.ToEntityTypeKey,
			Properties:        NewPropertySet(relationProps[row.Key]),
		})
	}

	return NewSnapshot(ont.ID, ont.Key, ont.Name, ont.Description, entityTypes, relationTypes), nil
}

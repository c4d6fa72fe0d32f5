package schema

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/rawe/ontoforge-sub000/pkg/apperror"
	"github.com/rawe/ontoforge-sub000/pkg/logger"
)

// DataType enumerates the supported property value kinds.
type DataType string

const (
	TypeString   DataType = "string"
	TypeInteger  DataType = "integer"
	TypeFloat    DataType = "float"
	TypeBoolean  DataType = "boolean"
	TypeDate     DataType = "date"
	TypeDatetime DataType = "datetime"
)

// ParseDataType validates a stored data type string.
func ParseDataType(s string) (DataType, error) {
	switch DataType(s) {
	case TypeString, TypeInteger, TypeFloat, TypeBoolean, TypeDate, TypeDatetime:
		return DataType(s), nil
	default:
		return "", fmt.Errorf("unknown data type %q", s)
	}
}

// PropertyDef is a compiled property declaration on a type.
type PropertyDef struct {
	Key          string
	DisplayName  string
	Description  string
	DataType     DataType
	Required     bool
	DefaultValue *string
}

// PropertySet holds a type's properties in schema-declared order with
// O(1) key lookup.
type PropertySet struct {
	ordered []PropertyDef
	index   map[string]int
}

// NewPropertySet builds a PropertySet preserving declaration order.
func NewPropertySet(props []PropertyDef) PropertySet {
	index := make(map[string]int, len(props))
	for i, p := range props {
		index[p.Key] = i
	}
	return PropertySet{ordered: props, index: index}
}

// Get returns the property declared under key.
func (s PropertySet) Get(key string) (*PropertyDef, bool) {
	i, ok := s.index[key]
	if !ok {
		return nil, false
	}
	return &s.ordered[i], true
}

// All returns the properties in declaration order.
func (s PropertySet) All() []PropertyDef {
	return s.ordered
}

// Len returns the number of declared properties.
func (s PropertySet) Len() int {
	return len(s.ordered)
}

// EntityTypeDef is a compiled entity type definition.
type EntityTypeDef struct {
	Key         string
	DisplayName string
	Description string
	Properties  PropertySet
}

// RelationTypeDef is a compiled relation type definition with its
// declared endpoint entity types.
type RelationTypeDef struct {
	Key               string
	DisplayName       string
	Description       string
	FromEntityTypeKey string
	ToEntityTypeKey   string
	Properties        PropertySet
}

// Snapshot is an immutable, fully-built view of one ontology's schema.
// Snapshots are shared between concurrent readers and must never be
// mutated after construction.
type Snapshot struct {
	OntologyID          string
	OntologyKey         string
	OntologyName        string
	OntologyDescription string

	entityTypes   map[string]*EntityTypeDef
	relationTypes map[string]*RelationTypeDef
	entityOrder   []string
	relationOrder []string
}

// NewSnapshot builds a Snapshot from ordered type definitions.
func NewSnapshot(ontologyID, key, name, description string, entityTypes []*EntityTypeDef, relationTypes []*RelationTypeDef) *Snapshot {
	s := &Snapshot{
		OntologyID:          ontologyID,
		OntologyKey:         key,
		OntologyName:        name,
		OntologyDescription: description,
		entityTypes:         make(map[string]*EntityTypeDef, len(entityTypes)),
		relationTypes:       make(map[string]*RelationTypeDef, len(relationTypes)),
	}
	for _, et := range entityTypes {
		s.entityTypes[et.Key] = et
		s.entityOrder = append(s.entityOrder, et.Key)
	}
	for _, rt := range relationTypes {
		s.relationTypes[rt.Key] = rt
		s.relationOrder = append(s.relationOrder, rt.Key)
	}
	return s
}

// EntityType looks up an entity type by key.
func (s *Snapshot) EntityType(key string) (*EntityTypeDef, error) {
	et, ok := s.entityTypes[key]
	if !ok {
		return nil, apperror.NewNotFound("Entity type", key)
	}
	return et, nil
}

// RelationType looks up a relation type by key.
func (s *Snapshot) RelationType(key string) (*RelationTypeDef, error) {
	rt, ok := s.relationTypes[key]
	if !ok {
		return nil, apperror.NewNotFound("Relation type", key)
	}
	return rt, nil
}

// EntityTypes returns all entity types in load order.
func (s *Snapshot) EntityTypes() []*EntityTypeDef {
	out := make([]*EntityTypeDef, 0, len(s.entityOrder))
	for _, key := range s.entityOrder {
		out = append(out, s.entityTypes[key])
	}
	return out
}

// RelationTypes returns all relation types in load order.
func (s *Snapshot) RelationTypes() []*RelationTypeDef {
	out := make([]*RelationTypeDef, 0, len(s.relationOrder))
	for _, key := range s.relationOrder {
		out = append(out, s.relationTypes[key])
	}
	return out
}

// systemSortFields maps accepted sort aliases to system column names.
var systemSortFields = map[string]string{
	"createdAt":  "_createdAt",
	"updatedAt":  "_updatedAt",
	"_createdAt": "_createdAt",
	"_updatedAt": "_updatedAt",
}

// SortField is a resolved sort target: either a system timestamp or a
// declared property. DataType is set for property sorts so storage can
// order numerically where the property is numeric.
type SortField struct {
	Key      string
	System   bool
	DataType DataType
}

// ResolveSortField maps a caller-supplied sort key to a system field or a
// declared property of the given set.
func ResolveSortField(sort string, props PropertySet) (SortField, error) {
	if sys, ok := systemSortFields[sort]; ok {
		return SortField{Key: sys, System: true}, nil
	}
	if def, ok := props.Get(sort); ok {
		return SortField{Key: sort, DataType: def.DataType}, nil
	}
	return SortField{}, apperror.NewValidation(map[string]string{
		"sort": fmt.Sprintf("'%s' is not a valid sort field", sort),
	}).WithMessage(fmt.Sprintf("Invalid sort field: '%s'", sort))
}

// Loader supplies authoritative schema definitions for the cache.
type Loader interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// Cache publishes the current schema snapshot to concurrent readers and
// rebuilds it wholesale on demand. A refresh builds a new snapshot off to
// the side and swaps it in atomically; requests begun against an old
// snapshot finish against it.
type Cache struct {
	loader  Loader
	log     *slog.Logger
	current atomic.Pointer[Snapshot]

	// serializes refreshes; readers never block
	mu sync.Mutex
}

// NewCache creates a schema cache backed by the given loader.
func NewCache(loader Loader, log *slog.Logger) *Cache {
	return &Cache{
		loader: loader,
		log:    log.With(logger.Scope("schema-cache")),
	}
}

// Current returns the active snapshot, loading it on first use.
func (c *Cache) Current(ctx context.Context) (*Snapshot, error) {
	if snap := c.current.Load(); snap != nil {
		return snap, nil
	}
	return c.Refresh(ctx)
}

// Refresh rebuilds the snapshot from the loader and publishes it.
func (c *Cache) Refresh(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, err := c.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	c.current.Store(snap)
	c.log.Info("schema snapshot published",
		slog.String("ontology", snap.OntologyKey),
		slog.Int("entity_types", len(snap.entityTypes)),
		slog.Int("relation_types", len(snap.relationTypes)),
	)
	return snap, nil
}

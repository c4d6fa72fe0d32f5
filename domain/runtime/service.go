package runtime

import (
	"context"
	"log/slog"
	"maps"

	"github.com/google/uuid"

	"github.com/rawe/ontoforge-sub000/domain/schema"
	"github.com/rawe/ontoforge-sub000/pkg/apperror"
	"github.com/rawe/ontoforge-sub000/pkg/logger"
	"github.com/rawe/ontoforge-sub000/pkg/mathutil"
)

const (
	defaultPageLimit   = 50
	maxPageLimit       = 200
	defaultSearchLimit = 10
	maxSearchLimit     = 100
)

// ListOptions captures the query surface of instance list endpoints.
type ListOptions struct {
	Filters map[string]string
	Search  string
	Sort    string
	Order   string
	Limit   int
	Offset  int
}

// RelationListOptions adds endpoint equality filters to ListOptions.
type RelationListOptions struct {
	ListOptions
	FromEntityID string
	ToEntityID   string
}

// NeighborOptions captures the query surface of the traversal endpoint.
type NeighborOptions struct {
	Direction       string
	RelationTypeKey string
	Limit           int
}

// Neighborhood is one entity with its connected relations and entities.
type Neighborhood struct {
	Entity    EntityRecord
	Neighbors []NeighborRecord
}

// Page is one page of instance records with the total match count.
type Page[T any] struct {
	Items  []T
	Total  int
	Limit  int
	Offset int
}

// Service validates instance payloads against the live schema snapshot
// and drives the store. All validation failures are collected per field
// and reported in a single error.
type Service struct {
	cache    *schema.Cache
	store    Store
	searcher *Searcher
	gateway  EmbeddingGateway
	log      *slog.Logger
}

func NewService(cache *schema.Cache, store Store, searcher *Searcher, gateway EmbeddingGateway, log *slog.Logger) *Service {
	return &Service{
		cache:    cache,
		store:    store,
		searcher: searcher,
		gateway:  gateway,
		log:      log.With(logger.Scope("runtime")),
	}
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// stringPropKeys returns the keys of string-typed properties in
// declaration order.
func stringPropKeys(defs schema.PropertySet) []string {
	var keys []string
	for _, def := range defs.All() {
		if def.DataType == schema.TypeString {
			keys = append(keys, def.Key)
		}
	}
	return keys
}

// embedForWrite builds the text representation and embeds it. Failures
// are logged and swallowed so writes never depend on the provider.
func (s *Service) embedForWrite(ctx context.Context, typeKey string, props map[string]any, defs schema.PropertySet) []float32 {
	if !s.gateway.IsEnabled() {
		return nil
	}
	text := TextRepr(typeKey, props, defs)
	embedding, err := s.gateway.EmbedDocument(ctx, text)
	if err != nil {
		s.log.Warn("embedding generation failed, storing without embedding",
			slog.String("entityTypeKey", typeKey), logger.Error(err))
		return nil
	}
	return embedding
}

// touchesStringProp reports whether a diff sets or removes any
// string-typed property.
func touchesStringProp(set map[string]any, remove []string, defs schema.PropertySet) bool {
	for key := range set {
		if def, ok := defs.Get(key); ok && def.DataType == schema.TypeString {
			return true
		}
	}
	for _, key := range remove {
		if def, ok := defs.Get(key); ok && def.DataType == schema.TypeString {
			return true
		}
	}
	return false
}

// splitDiff separates a validated partial payload into assignments and
// removals. Nil values are removal markers produced by validation.
func splitDiff(coerced map[string]any) (map[string]any, []string) {
	set := make(map[string]any)
	var remove []string
	for key, value := range coerced {
		if value == nil {
			remove = append(remove, key)
		} else {
			set[key] = value
		}
	}
	return set, remove
}

func (s *Service) ListEntities(ctx context.Context, typeKey string, opts ListOptions) (*Page[EntityRecord], error) {
	snap, err := s.cache.Current(ctx)
	if err != nil {
		return nil, err
	}
	et, err := snap.EntityType(typeKey)
	if err != nil {
		return nil, err
	}

	predicates, err := CompileFilters(opts.Filters, et.Properties, et.Key)
	if err != nil {
		return nil, err
	}
	if opts.Sort == "" {
		opts.Sort = "_createdAt"
	}
	sortField, err := schema.ResolveSortField(opts.Sort, et.Properties)
	if err != nil {
		return nil, err
	}

	limit := mathutil.ClampLimit(opts.Limit, defaultPageLimit, maxPageLimit)
	offset := max(opts.Offset, 0)

	items, total, err := s.store.ListEntities(ctx, ListQuery{
		TypeKey:     et.Key,
		Predicates:  predicates,
		Search:      opts.Search,
		SearchProps: stringPropKeys(et.Properties),
		Sort:        sortField,
		Order:       opts.Order,
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		return nil, err
	}
	return &Page[EntityRecord]{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *Service) GetEntity(ctx context.Context, typeKey, id string) (*EntityRecord, error) {
	snap, err := s.cache.Current(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := snap.EntityType(typeKey); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, apperror.NewNotFound("Entity", id)
	}
	rec, err := s.store.GetEntity(ctx, typeKey, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperror.NewNotFound("Entity", id)
	}
	return rec, nil
}

func (s *Service) CreateEntity(ctx context.Context, typeKey string, props map[string]any) (*EntityRecord, error) {
	snap, err := s.cache.Current(ctx)
	if err != nil {
		return nil, err
	}
	et, err := snap.EntityType(typeKey)
	if err != nil {
		return nil, err
	}

	coerced, fieldErrs := ValidateCreate(props, et.Properties, et.Key)
	if err := fieldErrs.Err(); err != nil {
		return nil, err
	}

	rec := &EntityRecord{
		ID:         uuid.NewString(),
		TypeKey:    et.Key,
		Properties: coerced,
	}
	embedding := s.embedForWrite(ctx, et.Key, coerced, et.Properties)
	if err := s.store.CreateEntity(ctx, rec, embedding); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) UpdateEntity(ctx context.Context, typeKey, id string, props map[string]any) (*EntityRecord, error) {
	snap, err := s.cache.Current(ctx)
	if err != nil {
		return nil, err
	}
	et, err := snap.EntityType(typeKey)
	if err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, apperror.NewNotFound("Entity", id)
	}

	coerced, fieldErrs := ValidateUpdate(props, et.Properties, et.Key)
	if err := fieldErrs.Err(); err != nil {
		return nil, err
	}

	set, remove := splitDiff(coerced)
	if len(set) == 0 && len(remove) == 0 {
		return s.GetEntity(ctx, typeKey, id)
	}

	rec, err := s.store.UpdateEntity(ctx, typeKey, id, set, remove)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperror.NewNotFound("Entity", id)
	}

	if touchesStringProp(set, remove, et.Properties) {
		if embedding := s.embedForWrite(ctx, et.Key, rec.Properties, et.Properties); embedding != nil {
			if err := s.store.SetEntityEmbedding(ctx, rec.ID, embedding); err != nil {
				s.log.Warn("failed to store refreshed embedding",
					slog.String("entityId", rec.ID), logger.Error(err))
			}
		}
	}
	return rec, nil
}

func (s *Service) DeleteEntity(ctx context.Context, typeKey, id string) error {
	snap, err := s.cache.Current(ctx)
	if err != nil {
		return err
	}
	if _, err := snap.EntityType(typeKey); err != nil {
		return err
	}
	if !validID(id) {
		return apperror.NewNotFound("Entity", id)
	}
	deleted, err := s.store.DeleteEntity(ctx, typeKey, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.NewNotFound("Entity", id)
	}
	return nil
}

func (s *Service) Neighbors(ctx context.Context, typeKey, id string, opts NeighborOptions) (*Neighborhood, error) {
	snap, err := s.cache.Current(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := snap.EntityType(typeKey); err != nil {
		return nil, err
	}
	direction, ok := ParseDirection(opts.Direction)
	if !ok {
		return nil, apperror.NewValidation(map[string]string{
			"direction": "Must be one of 'outgoing', 'incoming' or 'both'",
		})
	}
	if opts.RelationTypeKey != "" {
		if _, err := snap.RelationType(opts.RelationTypeKey); err != nil {
			return nil, err
		}
	}
	if !validID(id) {
		return nil, apperror.NewNotFound("Entity", id)
	}

	entity, err := s.store.GetEntity(ctx, typeKey, id)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, apperror.NewNotFound("Entity", id)
	}

	limit := mathutil.ClampLimit(opts.Limit, defaultPageLimit, maxPageLimit)
	neighbors, err := s.store.Neighbors(ctx, id, direction, opts.RelationTypeKey, limit)
	if err != nil {
		return nil, err
	}
	return &Neighborhood{Entity: *entity, Neighbors: neighbors}, nil
}

func (s *Service) ListRelations(ctx context.Context, typeKey string, opts RelationListOptions) (*Page[RelationRecord], error) {
	snap, err := s.cache.Current(ctx)
	if err != nil {
		return nil, err
	}
	rt, err := snap.RelationType(typeKey)
	if err != nil {
		return nil, err
	}

	predicates, err := CompileFilters(opts.Filters, rt.Properties, rt.Key)
	if err != nil {
		return nil, err
	}
	if opts.Sort == "" {
		opts.Sort = "_createdAt"
	}
	sortField, err := schema.ResolveSortField(opts.Sort, rt.Properties)
	if err != nil {
		return nil, err
	}

	limit := mathutil.ClampLimit(opts.Limit, defaultPageLimit, maxPageLimit)
	offset := max(opts.Offset, 0)

	// An endpoint filter that is not a UUID can never match anything.
	if (opts.FromEntityID != "" && !validID(opts.FromEntityID)) ||
		(opts.ToEntityID != "" && !validID(opts.ToEntityID)) {
		return &Page[RelationRecord]{Items: []RelationRecord{}, Total: 0, Limit: limit, Offset: offset}, nil
	}

	items, total, err := s.store.ListRelations(ctx, RelationListQuery{
		TypeKey:      rt.Key,
		Predicates:   predicates,
		FromEntityID: opts.FromEntityID,
		ToEntityID:   opts.ToEntityID,
		Sort:         sortField,
		Order:        opts.Order,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return nil, err
	}
	return &Page[RelationRecord]{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *Service) GetRelation(ctx context.Context, typeKey, id string) (*RelationRecord, error) {
	snap, err := s.cache.Current(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := snap.RelationType(typeKey); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, apperror.NewNotFound("Relation", id)
	}
	rec, err := s.store.GetRelation(ctx, typeKey, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperror.NewNotFound("Relation", id)
	}
	return rec, nil
}

// checkEndpoint verifies that one relation endpoint exists and has the
// declared entity type, recording failures under the given field.
func (s *Service) checkEndpoint(ctx context.Context, field, label, id, wantType string, errs FieldErrors) error {
	if id == "" {
		errs.Add(field, "Required field missing")
		return nil
	}
	if !validID(id) {
		errs.Add(field, label+" entity '"+id+"' not found")
		return nil
	}
	entity, err := s.store.GetEntityByID(ctx, id)
	if err != nil {
		return err
	}
	if entity == nil {
		errs.Add(field, label+" entity '"+id+"' not found")
		return nil
	}
	if entity.TypeKey != wantType {
		errs.Add(field, label+" entity type mismatch: expected '"+wantType+"', got '"+entity.TypeKey+"'")
	}
	return nil
}

// CreateRelation validates relation properties and both endpoints in a
// single pass so every problem is reported at once.
func (s *Service) CreateRelation(ctx context.Context, typeKey string, body map[string]any) (*RelationRecord, error) {
	snap, err := s.cache.Current(ctx)
	if err != nil {
		return nil, err
	}
	rt, err := snap.RelationType(typeKey)
	if err != nil {
		return nil, err
	}

	props := maps.Clone(body)
	fromID, _ := props["fromEntityId"].(string)
	toID, _ := props["toEntityId"].(string)
	delete(props, "fromEntityId")
	delete(props, "toEntityId")

	coerced, fieldErrs := ValidateCreate(props, rt.Properties, rt.Key)

	endpointErrs := FieldErrors{}
	if err := s.checkEndpoint(ctx, "fromEntityId", "Source", fromID, rt.FromEntityTypeKey, endpointErrs); err != nil {
		return nil, err
	}
	if err := s.checkEndpoint(ctx, "toEntityId", "Target", toID, rt.ToEntityTypeKey, endpointErrs); err != nil {
		return nil, err
	}

	if len(endpointErrs) > 0 {
		all := FieldErrors{}
		all.Merge(fieldErrs)
		all.Merge(endpointErrs)
		return nil, apperror.NewEndpointMismatch(all)
	}
	if err := fieldErrs.Err(); err != nil {
		return nil, err
	}

	rec := &RelationRecord{
		ID:           uuid.NewString(),
		TypeKey:      rt.Key,
		FromEntityID: fromID,
		ToEntityID:   toID,
		Properties:   coerced,
	}
	if err := s.store.CreateRelation(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateRelation applies a partial property update. Endpoints are
// immutable, so fromEntityId/toEntityId keys in the payload are dropped.
func (s *Service) UpdateRelation(ctx context.Context, typeKey, id string, body map[string]any) (*RelationRecord, error) {
	snap, err := s.cache.Current(ctx)
	if err != nil {
		return nil, err
	}
	rt, err := snap.RelationType(typeKey)
	if err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, apperror.NewNotFound("Relation", id)
	}

	props := maps.Clone(body)
	delete(props, "fromEntityId")
	delete(props, "toEntityId")

	coerced, fieldErrs := ValidateUpdate(props, rt.Properties, rt.Key)
	if err := fieldErrs.Err(); err != nil {
		return nil, err
	}

	set, remove := splitDiff(coerced)
	if len(set) == 0 && len(remove) == 0 {
		return s.GetRelation(ctx, typeKey, id)
	}

	rec, err := s.store.UpdateRelation(ctx, typeKey, id, set, remove)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperror.NewNotFound("Relation", id)
	}
	return rec, nil
}

func (s *Service) DeleteRelation(ctx context.Context, typeKey, id string) error {
	snap, err := s.cache.Current(ctx)
	if err != nil {
		return err
	}
	if _, err := snap.RelationType(typeKey); err != nil {
		return err
	}
	if !validID(id) {
		return apperror.NewNotFound("Relation", id)
	}
	deleted, err := s.store.DeleteRelation(ctx, typeKey, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.NewNotFound("Relation", id)
	}
	return nil
}

// Search runs a semantic similarity search over entity instances.
func (s *Service) Search(ctx context.Context, params SearchParams) ([]ScoredEntity, error) {
	if params.Query == "" {
		return nil, apperror.NewValidation(map[string]string{
			"query": "Query must not be empty",
		})
	}
	snap, err := s.cache.Current(ctx)
	if err != nil {
		return nil, err
	}
	params.Limit = mathutil.ClampLimit(params.Limit, defaultSearchLimit, maxSearchLimit)
	return s.searcher.Search(ctx, snap, params)
}

// WipeResult reports what a wipe removed.
type WipeResult struct {
	OntologyKey      string
	EntitiesDeleted  int64
	RelationsDeleted int64
}

// Wipe deletes every entity and relation instance. The schema itself is
// preserved; the cache is refreshed afterwards.
func (s *Service) Wipe(ctx context.Context) (*WipeResult, error) {
	snap, err := s.cache.Current(ctx)
	if err != nil {
		return nil, err
	}
	entities, relations, err := s.store.WipeInstances(ctx)
	if err != nil {
		return nil, err
	}
	s.log.Info("wiped instance data",
		slog.String("ontologyKey", snap.OntologyKey),
		slog.Int64("entitiesDeleted", entities),
		slog.Int64("relationsDeleted", relations))
	if _, err := s.cache.Refresh(ctx); err != nil {
		s.log.Warn("schema refresh after wipe failed", logger.Error(err))
	}
	return &WipeResult{
		OntologyKey:      snap.OntologyKey,
		EntitiesDeleted:  entities,
		RelationsDeleted: relations,
	}, nil
}

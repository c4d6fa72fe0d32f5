package runtime

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawe/ontoforge-sub000/domain/schema"
	"github.com/rawe/ontoforge-sub000/pkg/apperror"
)

// fakeStore is an in-memory Store for service tests.
type fakeStore struct {
	mu         sync.Mutex
	entities   map[string]*EntityRecord
	relations  map[string]*RelationRecord
	embeddings map[string][]float32

	searchResults map[string][]ScoredEntity
	searchLimits  []int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entities:      make(map[string]*EntityRecord),
		relations:     make(map[string]*RelationRecord),
		embeddings:    make(map[string][]float32),
		searchResults: make(map[string][]ScoredEntity),
	}
}

func (f *fakeStore) ListEntities(ctx context.Context, q ListQuery) ([]EntityRecord, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []EntityRecord
	for _, rec := range f.entities {
		if rec.TypeKey != q.TypeKey {
			continue
		}
		if !matchesAll(q.Predicates, rec.Properties) {
			continue
		}
		matched = append(matched, *rec)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	if q.Offset >= len(matched) {
		return []EntityRecord{}, total, nil
	}
	matched = matched[q.Offset:]
	if len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, total, nil
}

func (f *fakeStore) GetEntity(ctx context.Context, typeKey, id string) (*EntityRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.entities[id]
	if !ok || rec.TypeKey != typeKey {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (f *fakeStore) GetEntityByID(ctx context.Context, id string) (*EntityRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.entities[id]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (f *fakeStore) CreateEntity(ctx context.Context, rec *EntityRecord, embedding []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	copied := *rec
	f.entities[rec.ID] = &copied
	if embedding != nil {
		f.embeddings[rec.ID] = embedding
	}
	return nil
}

func (f *fakeStore) UpdateEntity(ctx context.Context, typeKey, id string, set map[string]any, remove []string) (*EntityRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.entities[id]
	if !ok || rec.TypeKey != typeKey {
		return nil, nil
	}
	for k, v := range set {
		rec.Properties[k] = v
	}
	for _, k := range remove {
		delete(rec.Properties, k)
	}
	rec.UpdatedAt = time.Now().UTC()
	copied := *rec
	return &copied, nil
}

func (f *fakeStore) SetEntityEmbedding(ctx context.Context, id string, embedding []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embeddings[id] = embedding
	return nil
}

func (f *fakeStore) DeleteEntity(ctx context.Context, typeKey, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.entities[id]
	if !ok || rec.TypeKey != typeKey {
		return false, nil
	}
	delete(f.entities, id)
	delete(f.embeddings, id)
	for rid, rel := range f.relations {
		if rel.FromEntityID == id || rel.ToEntityID == id {
			delete(f.relations, rid)
		}
	}
	return true, nil
}

func (f *fakeStore) ListRelations(ctx context.Context, q RelationListQuery) ([]RelationRecord, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []RelationRecord
	for _, rec := range f.relations {
		if rec.TypeKey != q.TypeKey {
			continue
		}
		if q.FromEntityID != "" && rec.FromEntityID != q.FromEntityID {
			continue
		}
		if q.ToEntityID != "" && rec.ToEntityID != q.ToEntityID {
			continue
		}
		if !matchesAll(q.Predicates, rec.Properties) {
			continue
		}
		matched = append(matched, *rec)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	if q.Offset >= len(matched) {
		return []RelationRecord{}, total, nil
	}
	matched = matched[q.Offset:]
	if len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, total, nil
}

func (f *fakeStore) GetRelation(ctx context.Context, typeKey, id string) (*RelationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.relations[id]
	if !ok || rec.TypeKey != typeKey {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (f *fakeStore) CreateRelation(ctx context.Context, rec *RelationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	copied := *rec
	f.relations[rec.ID] = &copied
	return nil
}

func (f *fakeStore) UpdateRelation(ctx context.Context, typeKey, id string, set map[string]any, remove []string) (*RelationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.relations[id]
	if !ok || rec.TypeKey != typeKey {
		return nil, nil
	}
	for k, v := range set {
		rec.Properties[k] = v
	}
	for _, k := range remove {
		delete(rec.Properties, k)
	}
	rec.UpdatedAt = time.Now().UTC()
	copied := *rec
	return &copied, nil
}

func (f *fakeStore) DeleteRelation(ctx context.Context, typeKey, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.relations[id]
	if !ok || rec.TypeKey != typeKey {
		return false, nil
	}
	delete(f.relations, id)
	return true, nil
}

func (f *fakeStore) Neighbors(ctx context.Context, entityID string, direction Direction, relationTypeKey string, limit int) ([]NeighborRecord, error) {
	collect := func(dir Direction, budget int) []NeighborRecord {
		f.mu.Lock()
		defer f.mu.Unlock()

		var ids []string
		for id := range f.relations {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		var out []NeighborRecord
		for _, id := range ids {
			rel := f.relations[id]
			if relationTypeKey != "" && rel.TypeKey != relationTypeKey {
				continue
			}
			var otherID string
			if dir == DirectionOutgoing && rel.FromEntityID == entityID {
				otherID = rel.ToEntityID
			} else if dir == DirectionIncoming && rel.ToEntityID == entityID {
				otherID = rel.FromEntityID
			} else {
				continue
			}
			other, ok := f.entities[otherID]
			if !ok {
				continue
			}
			out = append(out, NeighborRecord{Relation: *rel, Entity: *other, Direction: dir})
			if len(out) == budget {
				break
			}
		}
		return out
	}

	if direction != DirectionBoth {
		return collect(direction, limit), nil
	}
	out := collect(DirectionOutgoing, limit)
	if remaining := limit - len(out); remaining > 0 {
		out = append(out, collect(DirectionIncoming, remaining)...)
	}
	return out, nil
}

func (f *fakeStore) SearchEntities(ctx context.Context, typeKey string, embedding []float32, limit int) ([]ScoredEntity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchLimits = append(f.searchLimits, limit)
	hits := f.searchResults[typeKey]
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (f *fakeStore) WipeInstances(ctx context.Context) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entities := int64(len(f.entities))
	relations := int64(len(f.relations))
	f.entities = make(map[string]*EntityRecord)
	f.relations = make(map[string]*RelationRecord)
	f.embeddings = make(map[string][]float32)
	return entities, relations, nil
}

// fakeGateway is a canned embeddings gateway.
type fakeGateway struct {
	enabled  bool
	queryVec []float32
	queryErr error
	docVec   []float32
	docErr   error

	mu       sync.Mutex
	docCalls []string
}

func (g *fakeGateway) IsEnabled() bool { return g.enabled }

func (g *fakeGateway) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return g.queryVec, g.queryErr
}

func (g *fakeGateway) EmbedDocument(ctx context.Context, document string) ([]float32, error) {
	g.mu.Lock()
	g.docCalls = append(g.docCalls, document)
	g.mu.Unlock()
	return g.docVec, g.docErr
}

func (g *fakeGateway) documents() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.docCalls...)
}

type staticLoader struct {
	snap *schema.Snapshot
}

func (l *staticLoader) Load(ctx context.Context) (*schema.Snapshot, error) {
	return l.snap, nil
}

func runtimeTestSnapshot() *schema.Snapshot {
	person := &schema.EntityTypeDef{
		Key:         "person",
		DisplayName: "Person",
		Properties: schema.NewPropertySet([]schema.PropertyDef{
			{Key: "name", DataType: schema.TypeString, Required: true},
			{Key: "age", DataType: schema.TypeInteger},
			{Key: "bio", DataType: schema.TypeString},
			{Key: "active", DataType: schema.TypeBoolean},
		}),
	}
	company := &schema.EntityTypeDef{
		Key:         "company",
		DisplayName: "Company",
		Properties: schema.NewPropertySet([]schema.PropertyDef{
			{Key: "name", DataType: schema.TypeString, Required: true},
		}),
	}
	worksFor := &schema.RelationTypeDef{
		Key:               "works_for",
		DisplayName:       "Works For",
		FromEntityTypeKey: "person",
		ToEntityTypeKey:   "company",
		Properties: schema.NewPropertySet([]schema.PropertyDef{
			{Key: "role", DataType: schema.TypeString},
			{Key: "since", DataType: schema.TypeDate},
		}),
	}
	return schema.NewSnapshot("ont-1", "default", "Default", "",
		[]*schema.EntityTypeDef{person, company},
		[]*schema.RelationTypeDef{worksFor})
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, gateway *fakeGateway) (*Service, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	log := testLogger()
	cache := schema.NewCache(&staticLoader{snap: runtimeTestSnapshot()}, log)
	searcher := NewSearcher(store, gateway, log)
	return NewService(cache, store, searcher, gateway, log), store
}

func requireAppError(t *testing.T, err error) *apperror.Error {
	t.Helper()
	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr), "expected *apperror.Error, got %v", err)
	return appErr
}

func mustCreatePerson(t *testing.T, svc *Service, props map[string]any) *EntityRecord {
	t.Helper()
	rec, err := svc.CreateEntity(context.Background(), "person", props)
	require.NoError(t, err)
	return rec
}

func TestCreateEntity(t *testing.T) {
	svc, store := newTestService(t, &fakeGateway{})
	ctx := context.Background()

	rec, err := svc.CreateEntity(ctx, "person", map[string]any{"name": "Alice", "age": float64(30)})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "person", rec.TypeKey)
	assert.Equal(t, "Alice", rec.Properties["name"])
	assert.Equal(t, int64(30), rec.Properties["age"])
	assert.False(t, rec.CreatedAt.IsZero())

	stored, err := store.GetEntity(ctx, "person", rec.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestCreateEntityUnknownType(t *testing.T) {
	svc, _ := newTestService(t, &fakeGateway{})

	_, err := svc.CreateEntity(context.Background(), "robot", map[string]any{})
	appErr := requireAppError(t, err)
	assert.Equal(t, 404, appErr.HTTPStatus)
	assert.Equal(t, "Entity type 'robot' not found", appErr.Message)
}

func TestCreateEntityValidationFailure(t *testing.T) {
	svc, store := newTestService(t, &fakeGateway{})

	_, err := svc.CreateEntity(context.Background(), "person", map[string]any{"age": "abc"})
	appErr := requireAppError(t, err)
	assert.Equal(t, "validation_error", appErr.Code)
	assert.Equal(t, map[string]string{
		"name": "Required property missing",
		"age":  "Expected integer for 'age', got 'abc'",
	}, appErr.Fields())
	assert.Empty(t, store.entities)
}

func TestCreateEntityEmbeds(t *testing.T) {
	gateway := &fakeGateway{enabled: true, docVec: []float32{0.1, 0.2}}
	svc, store := newTestService(t, gateway)

	rec := mustCreatePerson(t, svc, map[string]any{"name": "Alice"})
	assert.Equal(t, []float32{0.1, 0.2}, store.embeddings[rec.ID])
	require.Len(t, gateway.documents(), 1)
	assert.Equal(t, "person: name=Alice", gateway.documents()[0])
}

func TestCreateEntityEmbeddingSoftFail(t *testing.T) {
	gateway := &fakeGateway{enabled: true, docErr: errors.New("provider down")}
	svc, store := newTestService(t, gateway)

	rec := mustCreatePerson(t, svc, map[string]any{"name": "Alice"})
	assert.NotContains(t, store.embeddings, rec.ID)
	_, ok := store.entities[rec.ID]
	assert.True(t, ok)
}

func TestGetEntityNotFound(t *testing.T) {
	svc, _ := newTestService(t, &fakeGateway{})
	ctx := context.Background()

	missing := uuid.NewString()
	_, err := svc.GetEntity(ctx, "person", missing)
	appErr := requireAppError(t, err)
	assert.Equal(t, "Entity '"+missing+"' not found", appErr.Message)

	// Malformed ids are reported as not found, not as a database error
	_, err = svc.GetEntity(ctx, "person", "not-a-uuid")
	appErr = requireAppError(t, err)
	assert.Equal(t, 404, appErr.HTTPStatus)
}

func TestUpdateEntity(t *testing.T) {
	svc, _ := newTestService(t, &fakeGateway{})
	ctx := context.Background()

	rec := mustCreatePerson(t, svc, map[string]any{"name": "Alice", "bio": "old"})

	updated, err := svc.UpdateEntity(ctx, "person", rec.ID, map[string]any{
		"age": float64(31),
		"bio": nil,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(31), updated.Properties["age"])
	assert.NotContains(t, updated.Properties, "bio")
	assert.Equal(t, "Alice", updated.Properties["name"])
}

func TestUpdateEntityNullRequired(t *testing.T) {
	svc, _ := newTestService(t, &fakeGateway{})

	rec := mustCreatePerson(t, svc, map[string]any{"name": "Alice"})
	_, err := svc.UpdateEntity(context.Background(), "person", rec.ID, map[string]any{"name": nil})
	appErr := requireAppError(t, err)
	assert.Equal(t, map[string]string{"name": "Cannot set required property to null"}, appErr.Fields())
}

func TestUpdateEntityEmptyDiffIsAGet(t *testing.T) {
	svc, _ := newTestService(t, &fakeGateway{})
	ctx := context.Background()

	rec := mustCreatePerson(t, svc, map[string]any{"name": "Alice"})

	got, err := svc.UpdateEntity(ctx, "person", rec.ID, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, rec.UpdatedAt, got.UpdatedAt)
}

func TestUpdateEntityReembedsOnStringChange(t *testing.T) {
	gateway := &fakeGateway{enabled: true, docVec: []float32{0.5}}
	svc, store := newTestService(t, gateway)
	ctx := context.Background()

	rec := mustCreatePerson(t, svc, map[string]any{"name": "Alice"})
	require.Len(t, gateway.documents(), 1)

	// Non-string change: no re-embed
	_, err := svc.UpdateEntity(ctx, "person", rec.ID, map[string]any{"age": float64(30)})
	require.NoError(t, err)
	assert.Len(t, gateway.documents(), 1)

	// String change: re-embed with the merged properties
	_, err = svc.UpdateEntity(ctx, "person", rec.ID, map[string]any{"bio": "Likes graphs"})
	require.NoError(t, err)
	require.Len(t, gateway.documents(), 2)
	assert.Equal(t, "person: name=Alice, bio=Likes graphs", gateway.documents()[1])
	assert.Equal(t, []float32{0.5}, store.embeddings[rec.ID])
}

func TestDeleteEntityDetaches(t *testing.T) {
	svc, store := newTestService(t, &fakeGateway{})
	ctx := context.Background()

	alice := mustCreatePerson(t, svc, map[string]any{"name": "Alice"})
	acme, err := svc.CreateEntity(ctx, "company", map[string]any{"name": "Acme"})
	require.NoError(t, err)

	_, err = svc.CreateRelation(ctx, "works_for", map[string]any{
		"fromEntityId": alice.ID,
		"toEntityId":   acme.ID,
	})
	require.NoError(t, err)
	require.Len(t, store.relations, 1)

	require.NoError(t, svc.DeleteEntity(ctx, "person", alice.ID))
	assert.Empty(t, store.relations)

	err = svc.DeleteEntity(ctx, "person", alice.ID)
	appErr := requireAppError(t, err)
	assert.Equal(t, 404, appErr.HTTPStatus)
}

func TestCreateRelation(t *testing.T) {
	svc, _ := newTestService(t, &fakeGateway{})
	ctx := context.Background()

	alice := mustCreatePerson(t, svc, map[string]any{"name": "Alice"})
	acme, err := svc.CreateEntity(ctx, "company", map[string]any{"name": "Acme"})
	require.NoError(t, err)

	rec, err := svc.CreateRelation(ctx, "works_for", map[string]any{
		"fromEntityId": alice.ID,
		"toEntityId":   acme.ID,
		"role":         "engineer",
	})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, rec.FromEntityID)
	assert.Equal(t, acme.ID, rec.ToEntityID)
	assert.Equal(t, "engineer", rec.Properties["role"])
	assert.NotContains(t, rec.Properties, "fromEntityId")
}

func TestCreateRelationEndpointMismatch(t *testing.T) {
	svc, _ := newTestService(t, &fakeGateway{})
	ctx := context.Background()

	alice := mustCreatePerson(t, svc, map[string]any{"name": "Alice"})
	acme, err := svc.CreateEntity(ctx, "company", map[string]any{"name": "Acme"})
	require.NoError(t, err)

	// Swapped endpoints: both sides fail the type check
	_, err = svc.CreateRelation(ctx, "works_for", map[string]any{
		"fromEntityId": acme.ID,
		"toEntityId":   alice.ID,
	})
	appErr := requireAppError(t, err)
	assert.Equal(t, "endpoint_mismatch", appErr.Code)
	assert.Equal(t, 422, appErr.HTTPStatus)
	assert.Equal(t, map[string]string{
		"fromEntityId": "Source entity type mismatch: expected 'person', got 'company'",
		"toEntityId":   "Target entity type mismatch: expected 'company', got 'person'",
	}, appErr.Fields())
}

func TestCreateRelationMissingEndpointAndBadProp(t *testing.T) {
	svc, _ := newTestService(t, &fakeGateway{})
	ctx := context.Background()

	alice := mustCreatePerson(t, svc, map[string]any{"name": "Alice"})
	missing := uuid.NewString()

	// Endpoint and property failures are reported together
	_, err := svc.CreateRelation(ctx, "works_for", map[string]any{
		"fromEntityId": alice.ID,
		"toEntityId":   missing,
		"since":        "not-a-date",
	})
	appErr := requireAppError(t, err)
	assert.Equal(t, "endpoint_mismatch", appErr.Code)
	assert.Equal(t, map[string]string{
		"toEntityId": "Target entity '" + missing + "' not found",
		"since":      "Expected ISO date for 'since', got 'not-a-date'",
	}, appErr.Fields())
}

func TestUpdateRelationIgnoresEndpoints(t *testing.T) {
	svc, _ := newTestService(t, &fakeGateway{})
	ctx := context.Background()

	alice := mustCreatePerson(t, svc, map[string]any{"name": "Alice"})
	acme, err := svc.CreateEntity(ctx, "company", map[string]any{"name": "Acme"})
	require.NoError(t, err)

	rec, err := svc.CreateRelation(ctx, "works_for", map[string]any{
		"fromEntityId": alice.ID,
		"toEntityId":   acme.ID,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateRelation(ctx, "works_for", rec.ID, map[string]any{
		"fromEntityId": uuid.NewString(),
		"role":         "manager",
	})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, updated.FromEntityID)
	assert.Equal(t, "manager", updated.Properties["role"])
}

func TestNeighbors(t *testing.T) {
	svc, _ := newTestService(t, &fakeGateway{})
	ctx := context.Background()

	alice := mustCreatePerson(t, svc, map[string]any{"name": "Alice"})
	acme, err := svc.CreateEntity(ctx, "company", map[string]any{"name": "Acme"})
	require.NoError(t, err)

	_, err = svc.CreateRelation(ctx, "works_for", map[string]any{
		"fromEntityId": alice.ID,
		"toEntityId":   acme.ID,
	})
	require.NoError(t, err)

	hood, err := svc.Neighbors(ctx, "person", alice.ID, NeighborOptions{})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, hood.Entity.ID)
	require.Len(t, hood.Neighbors, 1)
	assert.Equal(t, DirectionOutgoing, hood.Neighbors[0].Direction)
	assert.Equal(t, acme.ID, hood.Neighbors[0].Entity.ID)

	// From the company's side the same relation is incoming
	hood, err = svc.Neighbors(ctx, "company", acme.ID, NeighborOptions{Direction: "incoming"})
	require.NoError(t, err)
	require.Len(t, hood.Neighbors, 1)
	assert.Equal(t, DirectionIncoming, hood.Neighbors[0].Direction)
	assert.Equal(t, alice.ID, hood.Neighbors[0].Entity.ID)
}

func TestNeighborsValidation(t *testing.T) {
	svc, _ := newTestService(t, &fakeGateway{})
	ctx := context.Background()

	alice := mustCreatePerson(t, svc, map[string]any{"name": "Alice"})

	_, err := svc.Neighbors(ctx, "person", alice.ID, NeighborOptions{Direction: "sideways"})
	appErr := requireAppError(t, err)
	assert.Equal(t, "validation_error", appErr.Code)

	_, err = svc.Neighbors(ctx, "person", alice.ID, NeighborOptions{RelationTypeKey: "nope"})
	appErr = requireAppError(t, err)
	assert.Equal(t, 404, appErr.HTTPStatus)

	_, err = svc.Neighbors(ctx, "person", uuid.NewString(), NeighborOptions{})
	appErr = requireAppError(t, err)
	assert.Equal(t, 404, appErr.HTTPStatus)
}

func TestListEntities(t *testing.T) {
	svc, _ := newTestService(t, &fakeGateway{})
	ctx := context.Background()

	mustCreatePerson(t, svc, map[string]any{"name": "Alice", "age": float64(30)})
	mustCreatePerson(t, svc, map[string]any{"name": "Bob", "age": float64(20)})

	page, err := svc.ListEntities(ctx, "person", ListOptions{
		Filters: map[string]string{"age__gt": "25"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Alice", page.Items[0].Properties["name"])
	assert.Equal(t, 50, page.Limit)
	assert.Equal(t, 0, page.Offset)
}

func TestListEntitiesClampsLimit(t *testing.T) {
	svc, _ := newTestService(t, &fakeGateway{})

	page, err := svc.ListEntities(context.Background(), "person", ListOptions{Limit: 9999, Offset: -3})
	require.NoError(t, err)
	assert.Equal(t, 200, page.Limit)
	assert.Equal(t, 0, page.Offset)
}

func TestListEntitiesInvalidSort(t *testing.T) {
	svc, _ := newTestService(t, &fakeGateway{})

	_, err := svc.ListEntities(context.Background(), "person", ListOptions{Sort: "height"})
	appErr := requireAppError(t, err)
	assert.Equal(t, "Invalid sort field: 'height'", appErr.Message)
	assert.Equal(t, map[string]string{"sort": "'height' is not a valid sort field"}, appErr.Fields())
}

func TestListRelationsByEndpoint(t *testing.T) {
	svc, _ := newTestService(t, &fakeGateway{})
	ctx := context.Background()

	alice := mustCreatePerson(t, svc, map[string]any{"name": "Alice"})
	bob := mustCreatePerson(t, svc, map[string]any{"name": "Bob"})
	acme, err := svc.CreateEntity(ctx, "company", map[string]any{"name": "Acme"})
	require.NoError(t, err)

	for _, from := range []string{alice.ID, bob.ID} {
		_, err = svc.CreateRelation(ctx, "works_for", map[string]any{
			"fromEntityId": from,
			"toEntityId":   acme.ID,
		})
		require.NoError(t, err)
	}

	page, err := svc.ListRelations(ctx, "works_for", RelationListOptions{FromEntityID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	// A malformed endpoint id matches nothing instead of erroring
	page, err = svc.ListRelations(ctx, "works_for", RelationListOptions{FromEntityID: "garbage"})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.Empty(t, page.Items)
}

func TestWipe(t *testing.T) {
	svc, store := newTestService(t, &fakeGateway{})
	ctx := context.Background()

	alice := mustCreatePerson(t, svc, map[string]any{"name": "Alice"})
	acme, err := svc.CreateEntity(ctx, "company", map[string]any{"name": "Acme"})
	require.NoError(t, err)
	_, err = svc.CreateRelation(ctx, "works_for", map[string]any{
		"fromEntityId": alice.ID,
		"toEntityId":   acme.ID,
	})
	require.NoError(t, err)

	result, err := svc.Wipe(ctx)
	require.NoError(t, err)
	assert.Equal(t, "default", result.OntologyKey)
	assert.Equal(t, int64(2), result.EntitiesDeleted)
	assert.Equal(t, int64(1), result.RelationsDeleted)
	assert.Empty(t, store.entities)
	assert.Empty(t, store.relations)
}

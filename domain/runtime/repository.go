package runtime

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/rawe/ontoforge-sub000/domain/schema"
	"github.com/rawe/ontoforge-sub000/pkg/pgutils"
)

// entityRow represents the onto.entities table
type entityRow struct {
	bun.BaseModel `bun:"table:onto.entities,alias:e"`

	ID            string         `bun:"id,pk,type:uuid"`
	EntityTypeKey string         `bun:"entity_type_key,notnull"`
	Properties    map[string]any `bun:"properties,type:jsonb"`
	CreatedAt     time.Time      `bun:"created_at,notnull,default:now()"`
	UpdatedAt     time.Time      `bun:"updated_at,notnull,default:now()"`
}

// relationRow represents the onto.relations table
type relationRow struct {
	bun.BaseModel `bun:"table:onto.relations,alias:r"`

	ID              string         `bun:"id,pk,type:uuid"`
	RelationTypeKey string         `bun:"relation_type_key,notnull"`
	FromEntityID    string         `bun:"from_entity_id,notnull,type:uuid"`
	ToEntityID      string         `bun:"to_entity_id,notnull,type:uuid"`
	Properties      map[string]any `bun:"properties,type:jsonb"`
	CreatedAt       time.Time      `bun:"created_at,notnull,default:now()"`
	UpdatedAt       time.Time      `bun:"updated_at,notnull,default:now()"`
}

// Repository implements Store on Postgres via bun.
type Repository struct {
	db bun.IDB
}

// NewRepository creates a runtime instance repository.
func NewRepository(db bun.IDB) *Repository {
	return &Repository{db: db}
}

func entityFromRow(row entityRow) EntityRecord {
	return EntityRecord{
		ID:         row.ID,
		TypeKey:    row.EntityTypeKey,
		Properties: row.Properties,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}

func relationFromRow(row relationRow) RelationRecord {
	return RelationRecord{
		ID:           row.ID,
		TypeKey:      row.RelationTypeKey,
		FromEntityID: row.FromEntityID,
		ToEntityID:   row.ToEntityID,
		Properties:   row.Properties,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

// escapeLike escapes LIKE wildcard characters in a user-supplied pattern.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func containsPattern(s string) string {
	return "%" + escapeLike(s) + "%"
}

// applyPredicates translates predicate descriptors into WHERE clauses on
// the jsonb property bag. The property key is always parameter-bound.
func applyPredicates(q *bun.SelectQuery, alias string, preds []Predicate) *bun.SelectQuery {
	ops := map[FilterOp]string{
		FilterEq:  "=",
		FilterGt:  ">",
		FilterGte: ">=",
		FilterLt:  "<",
		FilterLte: "<=",
	}

	for _, p := range preds {
		col := alias + ".properties->>?"
		switch {
		case p.Op == FilterContains:
			q = q.Where(col+" ILIKE ?", p.Key, containsPattern(p.Value.(string)))
		case p.DataType == schema.TypeInteger || p.DataType == schema.TypeFloat:
			q = q.Where("("+col+")::numeric "+ops[p.Op]+" ?", p.Key, p.Value)
		case p.DataType == schema.TypeBoolean:
			q = q.Where("("+col+")::boolean "+ops[p.Op]+" ?", p.Key, p.Value)
		default:
			// string/date/datetime compare as text; ISO formats make
			// lexicographic order temporal order
			q = q.Where(col+" "+ops[p.Op]+" ?", p.Key, p.Value)
		}
	}
	return q
}

func sortExpr(alias string, sort schema.SortField, order string) (string, []any) {
	dir := "ASC"
	if strings.EqualFold(order, "desc") {
		dir = "DESC"
	}
	if sort.System {
		col := "created_at"
		if sort.Key == "_updatedAt" {
			col = "updated_at"
		}
		return alias + "." + col + " " + dir, nil
	}
	col := alias + ".properties->>?"
	switch sort.DataType {
	case schema.TypeInteger, schema.TypeFloat:
		return "(" + col + ")::numeric " + dir, []any{sort.Key}
	case schema.TypeBoolean:
		return "(" + col + ")::boolean " + dir, []any{sort.Key}
	default:
		return col + " " + dir, []any{sort.Key}
	}
}

// ListEntities counts matching instances, then fetches the requested page.
// The data pass is skipped when the count is zero.
func (r *Repository) ListEntities(ctx context.Context, q ListQuery) ([]EntityRecord, int, error) {
	base := func() *bun.SelectQuery {
		sq := r.db.NewSelect().
			Model((*entityRow)(nil)).
			Where("e.entity_type_key = ?", q.TypeKey)
		sq = applyPredicates(sq, "e", q.Predicates)
		if q.Search != "" && len(q.SearchProps) > 0 {
			pattern := containsPattern(q.Search)
			sq = sq.WhereGroup(" AND ", func(g *bun.SelectQuery) *bun.SelectQuery {
				for i, prop := range q.SearchProps {
					if i == 0 {
						g = g.Where("e.properties->>? ILIKE ?", prop, pattern)
					} else {
						g = g.WhereOr("e.properties->>? ILIKE ?", prop, pattern)
					}
				}
				return g
			})
		}
		return sq
	}

	total, err := base().Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count entities: %w", err)
	}
	if total == 0 {
		return []EntityRecord{}, 0, nil
	}

	expr, args := sortExpr("e", q.Sort, q.Order)
	var rows []entityRow
	if err := base().
		OrderExpr(expr, args...).
		Limit(q.Limit).
		Offset(q.Offset).
		Scan(ctx, &rows); err != nil {
		return nil, 0, fmt.Errorf("list entities: %w", err)
	}

	items := make([]EntityRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, entityFromRow(row))
	}
	return items, total, nil
}

func (r *Repository) GetEntity(ctx context.Context, typeKey, id string) (*EntityRecord, error) {
	var row entityRow
	err := r.db.NewSelect().
		Model(&row).
		Where("e.id = ?", id).
		Where("e.entity_type_key = ?", typeKey).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entity: %w", err)
	}
	rec := entityFromRow(row)
	return &rec, nil
}

func (r *Repository) GetEntityByID(ctx context.Context, id string) (*EntityRecord, error) {
	var row entityRow
	err := r.db.NewSelect().
		Model(&row).
		Where("e.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entity by id: %w", err)
	}
	rec := entityFromRow(row)
	return &rec, nil
}

func (r *Repository) CreateEntity(ctx context.Context, rec *EntityRecord, embedding []float32) error {
	row := entityRow{
		ID:            rec.ID,
		EntityTypeKey: rec.TypeKey,
		Properties:    rec.Properties,
	}

	q := r.db.NewInsert().Model(&row)
	if len(embedding) > 0 {
		q = q.Value("embedding", "?::vector", pgutils.FormatVector(embedding))
	}
	if _, err := q.Returning("created_at, updated_at").Exec(ctx); err != nil {
		return fmt.Errorf("create entity: %w", err)
	}

	rec.CreatedAt = row.CreatedAt
	rec.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *Repository) UpdateEntity(ctx context.Context, typeKey, id string, set map[string]any, remove []string) (*EntityRecord, error) {
	setJSON, err := json.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("marshal properties: %w", err)
	}
	if remove == nil {
		remove = []string{}
	}

	var row entityRow
	res, err := r.db.NewUpdate().
		Model(&row).
		Set("properties = (properties || ?::jsonb) - ?::text[]", string(setJSON), pgdialect.Array(remove)).
		Set("updated_at = now()").
		Where("e.id = ?", id).
		Where("e.entity_type_key = ?", typeKey).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("update entity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	rec := entityFromRow(row)
	return &rec, nil
}

func (r *Repository) SetEntityEmbedding(ctx context.Context, id string, embedding []float32) error {
	_, err := r.db.NewUpdate().
		Model((*entityRow)(nil)).
		Set("embedding = ?::vector", pgutils.FormatVector(embedding)).
		Where("e.id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set entity embedding: %w", err)
	}
	return nil
}

// DeleteEntity removes an entity; the FK cascade detaches every relation
// touching it.
func (r *Repository) DeleteEntity(ctx context.Context, typeKey, id string) (bool, error) {
	res, err := r.db.NewDelete().
		Model((*entityRow)(nil)).
		Where("e.id = ?", id).
		Where("e.entity_type_key = ?", typeKey).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("delete entity: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repository) ListRelations(ctx context.Context, q RelationListQuery) ([]RelationRecord, int, error) {
	base := func() *bun.SelectQuery {
		sq := r.db.NewSelect().
			Model((*relationRow)(nil)).
			Where("r.relation_type_key = ?", q.TypeKey)
		sq = applyPredicates(sq, "r", q.Predicates)
		if q.FromEntityID != "" {
			sq = sq.Where("r.from_entity_id = ?", q.FromEntityID)
		}
		if q.ToEntityID != "" {
			sq = sq.Where("r.to_entity_id = ?", q.ToEntityID)
		}
		return sq
	}

	total, err := base().Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count relations: %w", err)
	}
	if total == 0 {
		return []RelationRecord{}, 0, nil
	}

	expr, args := sortExpr("r", q.Sort, q.Order)
	var rows []relationRow
	if err := base().
		OrderExpr(expr, args...).
		Limit(q.Limit).
		Offset(q.Offset).
		Scan(ctx, &rows); err != nil {
		return nil, 0, fmt.Errorf("list relations: %w", err)
	}

	items := make([]RelationRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, relationFromRow(row))
	}
	return items, total, nil
}

func (r *Repository) GetRelation(ctx context.Context, typeKey, id string) (*RelationRecord, error) {
	var row relationRow
	err := r.db.NewSelect().
		Model(&row).
		Where("r.id = ?", id).
		Where("r.relation_type_key = ?", typeKey).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get relation: %w", err)
	}
	rec := relationFromRow(row)
	return &rec, nil
}

func (r *Repository) CreateRelation(ctx context.Context, rec *RelationRecord) error {
	row := relationRow{
		ID:              rec.ID,
		RelationTypeKey: rec.TypeKey,
		FromEntityID:    rec.FromEntityID,
		ToEntityID:      rec.ToEntityID,
		Properties:      rec.Properties,
	}
	if _, err := r.db.NewInsert().
		Model(&row).
		Returning("created_at, updated_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("create relation: %w", err)
	}
	rec.CreatedAt = row.CreatedAt
	rec.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *Repository) UpdateRelation(ctx context.Context, typeKey, id string, set map[string]any, remove []string) (*RelationRecord, error) {
	setJSON, err := json.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("marshal properties: %w", err)
	}
	if remove == nil {
		remove = []string{}
	}

	var row relationRow
	res, err := r.db.NewUpdate().
		Model(&row).
		Set("properties = (properties || ?::jsonb) - ?::text[]", string(setJSON), pgdialect.Array(remove)).
		Set("updated_at = now()").
		Where("r.id = ?", id).
		Where("r.relation_type_key = ?", typeKey).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("update relation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	rec := relationFromRow(row)
	return &rec, nil
}

func (r *Repository) DeleteRelation(ctx context.Context, typeKey, id string) (bool, error) {
	res, err := r.db.NewDelete().
		Model((*relationRow)(nil)).
		Where("r.id = ?", id).
		Where("r.relation_type_key = ?", typeKey).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("delete relation: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// neighborJoinRow is the flattened relation+entity projection used by
// traversal queries.
type neighborJoinRow struct {
	RelID           string         `bun:"rel_id"`
	RelationTypeKey string         `bun:"relation_type_key"`
	FromEntityID    string         `bun:"from_entity_id"`
	ToEntityID      string         `bun:"to_entity_id"`
	RelProperties   map[string]any `bun:"rel_properties,type:jsonb"`
	RelCreatedAt    time.Time      `bun:"rel_created_at"`
	RelUpdatedAt    time.Time      `bun:"rel_updated_at"`

	EntID         string         `bun:"ent_id"`
	EntityTypeKey string         `bun:"entity_type_key"`
	EntProperties map[string]any `bun:"ent_properties,type:jsonb"`
	EntCreatedAt  time.Time      `bun:"ent_created_at"`
	EntUpdatedAt  time.Time      `bun:"ent_updated_at"`
}

func (r *Repository) neighborsOneWay(ctx context.Context, entityID string, direction Direction, relationTypeKey string, limit int) ([]NeighborRecord, error) {
	joinCol, whereCol := "r.to_entity_id", "r.from_entity_id"
	if direction == DirectionIncoming {
		joinCol, whereCol = "r.from_entity_id", "r.to_entity_id"
	}

	q := r.db.NewSelect().
		TableExpr("onto.relations AS r").
		Join("JOIN onto.entities AS n ON n.id = "+joinCol).
		ColumnExpr("r.id AS rel_id, r.relation_type_key, r.from_entity_id, r.to_entity_id").
		ColumnExpr("r.properties AS rel_properties, r.created_at AS rel_created_at, r.updated_at AS rel_updated_at").
		ColumnExpr("n.id AS ent_id, n.entity_type_key").
		ColumnExpr("n.properties AS ent_properties, n.created_at AS ent_created_at, n.updated_at AS ent_updated_at").
		Where(whereCol+" = ?", entityID).
		OrderExpr("r.created_at ASC").
		Limit(limit)
	if relationTypeKey != "" {
		q = q.Where("r.relation_type_key = ?", relationTypeKey)
	}

	var rows []neighborJoinRow
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("neighbors %s: %w", direction, err)
	}

	out := make([]NeighborRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, NeighborRecord{
			Relation: RelationRecord{
				ID:           row.RelID,
				TypeKey:      row.RelationTypeKey,
				FromEntityID: row.FromEntityID,
				ToEntityID:   row.ToEntityID,
				Properties:   row.RelProperties,
				CreatedAt:    row.RelCreatedAt,
				UpdatedAt:    row.RelUpdatedAt,
			},
			Entity: EntityRecord{
				ID:         row.EntID,
				TypeKey:    row.EntityTypeKey,
				Properties: row.EntProperties,
				CreatedAt:  row.EntCreatedAt,
				UpdatedAt:  row.EntUpdatedAt,
			},
			Direction: direction,
		})
	}
	return out, nil
}

// Neighbors returns connected entities with their connecting relations.
// For both, outgoing entries come first and incoming entries fill the
// remaining budget.
func (r *Repository) Neighbors(ctx context.Context, entityID string, direction Direction, relationTypeKey string, limit int) ([]NeighborRecord, error) {
	if direction != DirectionBoth {
		return r.neighborsOneWay(ctx, entityID, direction, relationTypeKey, limit)
	}

	out, err := r.neighborsOneWay(ctx, entityID, DirectionOutgoing, relationTypeKey, limit)
	if err != nil {
		return nil, err
	}
	remaining := limit - len(out)
	if remaining > 0 {
		in, err := r.neighborsOneWay(ctx, entityID, DirectionIncoming, relationTypeKey, remaining)
		if err != nil {
			return nil, err
		}
		out = append(out, in...)
	}
	return out, nil
}

// scoredRow is the similarity search projection.
type scoredRow struct {
	ID            string         `bun:"id"`
	EntityTypeKey string         `bun:"entity_type_key"`
	Properties    map[string]any `bun:"properties,type:jsonb"`
	CreatedAt     time.Time      `bun:"created_at"`
	UpdatedAt     time.Time      `bun:"updated_at"`
	Score         float64        `bun:"score"`
}

// SearchEntities ranks entities of one type by cosine similarity to the
// query embedding. Entities without an embedding never match.
func (r *Repository) SearchEntities(ctx context.Context, typeKey string, embedding []float32, limit int) ([]ScoredEntity, error) {
	vec := pgutils.FormatVector(embedding)

	var rows []scoredRow
	err := r.db.NewSelect().
		TableExpr("onto.entities AS e").
		ColumnExpr("e.id, e.entity_type_key, e.properties, e.created_at, e.updated_at").
		ColumnExpr("1 - (e.embedding <=> ?::vector) AS score", vec).
		Where("e.entity_type_key = ?", typeKey).
		Where("e.embedding IS NOT NULL").
		OrderExpr("e.embedding <=> ?::vector", vec).
		Limit(limit).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("search entities: %w", err)
	}

	out := make([]ScoredEntity, 0, len(rows))
	for _, row := range rows {
		out = append(out, ScoredEntity{
			Entity: EntityRecord{
				ID:         row.ID,
				TypeKey:    row.EntityTypeKey,
				Properties: row.Properties,
				CreatedAt:  row.CreatedAt,
				UpdatedAt:  row.UpdatedAt,
			},
			Score: row.Score,
		})
	}
	return out, nil
}

// WipeInstances deletes all instance data, relations first, in one
// transaction. The schema tables are untouched.
func (r *Repository) WipeInstances(ctx context.Context) (int64, int64, error) {
	var entitiesDeleted, relationsDeleted int64

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*relationRow)(nil)).
			Where("TRUE").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("wipe relations: %w", err)
		}
		relationsDeleted, _ = res.RowsAffected()

		res, err = tx.NewDelete().
			Model((*entityRow)(nil)).
			Where("TRUE").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("wipe entities: %w", err)
		}
		entitiesDeleted, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return entitiesDeleted, relationsDeleted, nil
}

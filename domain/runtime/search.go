package runtime

import (
	"context"
	"log/slog"
	"sort"

	"github.com/rawe/ontoforge-sub000/domain/schema"
	"github.com/rawe/ontoforge-sub000/pkg/apperror"
	"github.com/rawe/ontoforge-sub000/pkg/logger"
)

// EmbeddingGateway is the slice of the embeddings service the search
// path depends on.
type EmbeddingGateway interface {
	IsEnabled() bool
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
	EmbedDocument(ctx context.Context, document string) ([]float32, error)
}

const (
	searchOverfetchFactor = 5
	searchOverfetchCap    = 500
)

// SearchParams describes one semantic search request after clamping.
type SearchParams struct {
	Query    string
	TypeKey  string // empty searches every entity type
	Limit    int
	MinScore *float64
	Filters  map[string]string
}

// Searcher runs vector similarity searches with post-retrieval property
// filtering.
type Searcher struct {
	store   Store
	gateway EmbeddingGateway
	log     *slog.Logger
}

func NewSearcher(store Store, gateway EmbeddingGateway, log *slog.Logger) *Searcher {
	return &Searcher{store: store, gateway: gateway, log: log.With(logger.Scope("runtime.search"))}
}

// Search embeds the query and ranks matching entities by cosine
// similarity. When filters are present the store is overfetched and the
// predicates applied to the returned rows, so the page can come up short
// of limit rather than wrong.
func (s *Searcher) Search(ctx context.Context, snap *schema.Snapshot, p SearchParams) ([]ScoredEntity, error) {
	if !s.gateway.IsEnabled() {
		return nil, apperror.ErrFeatureDisabled.WithMessage(
			"Semantic search is disabled: EMBEDDING_PROVIDER is not configured")
	}

	var typeKeys []string
	var predicates []Predicate
	if p.TypeKey != "" {
		et, err := snap.EntityType(p.TypeKey)
		if err != nil {
			return nil, err
		}
		predicates, err = CompileFilters(p.Filters, et.Properties, et.Key)
		if err != nil {
			return nil, err
		}
		typeKeys = []string{et.Key}
	} else {
		if len(p.Filters) > 0 {
			return nil, apperror.NewValidation(map[string]string{
				"entityTypeKey": "Filters require an entityTypeKey",
			})
		}
		for _, et := range snap.EntityTypes() {
			typeKeys = append(typeKeys, et.Key)
		}
	}

	embedding, err := s.gateway.EmbedQuery(ctx, p.Query)
	if err != nil || len(embedding) == 0 {
		return nil, apperror.ErrProviderUnavailable.
			WithMessage("Failed to generate query embedding").
			WithInternal(err)
	}

	fetchLimit := p.Limit
	if len(predicates) > 0 {
		fetchLimit = min(p.Limit*searchOverfetchFactor, searchOverfetchCap)
	}

	var hits []ScoredEntity
	for _, typeKey := range typeKeys {
		scored, err := s.store.SearchEntities(ctx, typeKey, embedding, fetchLimit)
		if err != nil {
			return nil, err
		}
		for _, hit := range scored {
			if p.MinScore != nil && hit.Score < *p.MinScore {
				continue
			}
			if !matchesAll(predicates, hit.Entity.Properties) {
				continue
			}
			hits = append(hits, hit)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > p.Limit {
		hits = hits[:p.Limit]
	}
	if hits == nil {
		hits = []ScoredEntity{}
	}
	return hits, nil
}

func matchesAll(predicates []Predicate, props map[string]any) bool {
	for _, pred := range predicates {
		if !pred.Matches(props) {
			return false
		}
	}
	return true
}

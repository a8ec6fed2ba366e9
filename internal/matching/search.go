package matching

import (
	"context"
	"fmt"
	"strconv"

	"github.com/meilisearch/meilisearch-go"
	"github.com/rs/zerolog"
)

// candidateSource produces the bounded candidate set for one query.
// The engine selects an implementation from configuration: the catalog
// retriever, or the search index with the retriever as fallback.
type candidateSource interface {
	fetch(ctx context.Context, in normalizedInput) ([]Candidate, error)
}

// sqlSource is the catalog-backed source (the three-pass retriever).
type sqlSource struct {
	retriever retriever
}

func (s *sqlSource) fetch(ctx context.Context, in normalizedInput) ([]Candidate, error) {
	return s.retriever.fetch(ctx, in)
}

// searchSource queries the external text-search index with the cleaned
// name and enriches hits with editions from the catalog, since the
// index does not store edition-level data.
type searchSource struct {
	index   meilisearch.IndexManager
	catalog Catalog
	limit   int64
}

func newSearchSource(cfg SearchIndexConfig, catalog Catalog) *searchSource {
	client := meilisearch.New(cfg.Host, meilisearch.WithAPIKey(cfg.APIKey))
	return &searchSource{
		index:   client.Index(cfg.Index),
		catalog: catalog,
		limit:   20,
	}
}

func (s *searchSource) fetch(ctx context.Context, in normalizedInput) ([]Candidate, error) {
	res, err := s.index.SearchWithContext(ctx, in.name, &meilisearch.SearchRequest{Limit: s.limit})
	if err != nil {
		return nil, fmt.Errorf("search index query: %w", err)
	}

	var candidates []Candidate
	eventIDs := make([]int64, 0, len(res.Hits))
	for _, raw := range res.Hits {
		hit, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		id, ok := hitID(hit["objectID"])
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{
			ID:         id,
			Name:       hitString(hit["eventName"]),
			City:       hitString(hit["eventCity"]),
			Slug:       hitString(hit["eventSlug"]),
			Department: hitString(hit["eventCountrySubdivisionDisplayCodeLevel2"]),
		})
		eventIDs = append(eventIDs, id)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	editions, err := s.catalog.ListEditions(ctx, eventIDs, in.window, in.year)
	if err != nil {
		return nil, fmt.Errorf("enrich search hits: %w", err)
	}
	byEvent := make(map[int64][]Edition, len(editions))
	for _, ed := range editions {
		byEvent[ed.EventID] = append(byEvent[ed.EventID], ed)
	}
	for i := range candidates {
		candidates[i].Editions = byEvent[candidates[i].ID]
	}
	return candidates, nil
}

func hitID(v interface{}) (int64, bool) {
	switch id := v.(type) {
	case float64:
		return int64(id), true
	case string:
		parsed, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func hitString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// fallbackSource tries the primary source and falls back to the
// secondary on any error or empty result. This is the sole
// error-recovery path for the search index: a single attempt, never a
// loop, and it never propagates the primary's failure.
type fallbackSource struct {
	primary   candidateSource
	secondary candidateSource
	log       zerolog.Logger
}

func (f *fallbackSource) fetch(ctx context.Context, in normalizedInput) ([]Candidate, error) {
	candidates, err := f.primary.fetch(ctx, in)
	if err != nil {
		f.log.Warn().Err(err).Msg("search index failed, falling back to catalog retrieval")
	} else if len(candidates) > 0 {
		return candidates, nil
	} else {
		f.log.Debug().Msg("search index returned no hits, falling back to catalog retrieval")
	}
	return f.secondary.fetch(ctx, in)
}

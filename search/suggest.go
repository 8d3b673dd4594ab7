package search

import (
	"context"
	"fmt"
	"strings"

	"wanderlist/catalog"
	"wanderlist/db"
	"wanderlist/models"
	"wanderlist/store"
)

// PrefixSentinel is appended to a term to form the inclusive upper bound of
// a prefix range query.
const PrefixSentinel = "\uf8ff"

const (
	DefaultSuggestLimit = 8
	defaultFetchLimit   = 50
)

// Suggester runs prefix range queries on activity_full_name. Matching is
// case-sensitive at the store; ranking afterwards is not.
type Suggester struct {
	store      store.Store
	limit      int
	fetchLimit int
}

func NewSuggester(s store.Store, limit int) *Suggester {
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}
	return &Suggester{store: s, limit: limit, fetchLimit: defaultFetchLimit}
}

// Suggest returns up to the configured number of ranked suggestions.
func (s *Suggester) Suggest(ctx context.Context, term string) ([]models.Activity, error) {
	return s.query(ctx, term, s.limit)
}

// Search returns every ranked match the store yields for term, up to the
// fetch limit.
func (s *Suggester) Search(ctx context.Context, term string) ([]models.Activity, error) {
	return s.query(ctx, term, s.fetchLimit)
}

func (s *Suggester) query(ctx context.Context, term string, limit int) ([]models.Activity, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []models.Activity{}, nil
	}
	page, err := s.store.Query(ctx, store.Query{
		Collection: db.Activities,
		Filters: []store.Filter{
			store.Where("activity_full_name", store.Gte, term),
			store.Where("activity_full_name", store.Lte, term+PrefixSentinel),
		},
		Limit: s.fetchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}
	return Rank(term, catalog.DecodeActivities(page.Documents), limit), nil
}

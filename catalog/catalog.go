// Package catalog reads activities and attractions from the store.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"wanderlist/cache"
	"wanderlist/db"
	"wanderlist/models"
	"wanderlist/schema"
	"wanderlist/store"
)

var ErrNotFound = errors.New("catalog: not found")

const DefaultPageSize = 100

type Catalog struct {
	store       store.Store
	attractions *cache.Cache
	pageSize    int
}

// New returns a Catalog. memo may be nil, in which case attractions are
// read from the store on every call.
func New(s store.Store, memo *cache.Cache, pageSize int) *Catalog {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Catalog{store: s, attractions: memo, pageSize: pageSize}
}

// Page returns up to limit activities after cursor. Documents that fail
// validation are skipped.
func (c *Catalog) Page(ctx context.Context, cursor string, limit int) ([]models.Activity, string, error) {
	if limit <= 0 {
		limit = c.pageSize
	}
	page, err := c.store.Query(ctx, store.Query{Collection: db.Activities, OrderBy: store.KeyField, Limit: limit, Cursor: cursor})
	if err != nil {
		return nil, "", fmt.Errorf("query activities: %w", err)
	}
	return DecodeActivities(page.Documents), page.NextCursor, nil
}

// All walks every page of the catalog in key order.
func (c *Catalog) All(ctx context.Context) ([]models.Activity, error) {
	var (
		all    []models.Activity
		cursor string
	)
	for {
		items, next, err := c.Page(ctx, cursor, c.pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if next == "" {
			return all, nil
		}
		cursor = next
	}
}

func (c *Catalog) Activity(ctx context.Context, id string) (models.Activity, error) {
	doc, err := c.store.Get(ctx, db.Activities, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Activity{}, ErrNotFound
	}
	if err != nil {
		return models.Activity{}, err
	}
	return schema.DecodeActivity(doc)
}

func (c *Catalog) Attraction(ctx context.Context, id string) (models.Attraction, error) {
	key := "attraction:" + id
	if c.attractions != nil {
		if v, ok := c.attractions.Get(key); ok {
			return v.(models.Attraction), nil
		}
	}

	doc, err := c.store.Get(ctx, db.Attractions, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Attraction{}, ErrNotFound
	}
	if err != nil {
		return models.Attraction{}, err
	}
	a, err := schema.DecodeAttraction(doc)
	if err != nil {
		return models.Attraction{}, err
	}
	if c.attractions != nil {
		c.attractions.Set(key, a)
	}
	return a, nil
}

// DecodeActivities converts documents, dropping and logging invalid ones.
func DecodeActivities(docs []store.Document) []models.Activity {
	out := make([]models.Activity, 0, len(docs))
	for _, d := range docs {
		a, err := schema.DecodeActivity(d)
		if err != nil {
			log.Warn().Err(err).Msg("skipping invalid activity")
			continue
		}
		out = append(out, a)
	}
	return out
}

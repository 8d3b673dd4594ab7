// Package photos looks up a representative photo URL for an activity name.
package photos

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"wanderlist/models"
)

var ErrNoPhoto = errors.New("photos: no results")

type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Resolve returns a photo URL for query, or the placeholder image when s
// is nil, the query is empty, or the lookup fails.
func Resolve(ctx context.Context, s Searcher, query string) string {
	query = strings.TrimSpace(query)
	if s == nil || query == "" {
		return models.PlaceholderImage
	}
	u, err := s.Search(ctx, query)
	if err != nil || u == "" {
		if err != nil && !errors.Is(err, ErrNoPhoto) {
			log.Warn().Err(err).Str("query", query).Msg("photo lookup failed")
		}
		return models.PlaceholderImage
	}
	return u
}

// URLCache is a string cache shared by photo lookups.
type URLCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Cached remembers results of next, including misses, keyed by the
// lower-cased query.
type Cached struct {
	next  Searcher
	cache URLCache
}

func NewCached(next Searcher, cache URLCache) *Cached {
	return &Cached{next: next, cache: cache}
}

func (c *Cached) Search(ctx context.Context, query string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if v, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		if v == "" {
			return "", ErrNoPhoto
		}
		return v, nil
	} else if err != nil {
		log.Debug().Err(err).Msg("photo cache read failed")
	}

	u, err := c.next.Search(ctx, query)
	switch {
	case errors.Is(err, ErrNoPhoto):
		_ = c.cache.Set(ctx, key, "")
		return "", err
	case err != nil:
		return "", err
	}
	if err := c.cache.Set(ctx, key, u); err != nil {
		log.Debug().Err(err).Msg("photo cache write failed")
	}
	return u, nil
}

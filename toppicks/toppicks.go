// Package toppicks selects a small daily set of recommended activities
// for a user and caches it until the calendar day changes.
package toppicks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"wanderlist/events"
	"wanderlist/models"
)

const DefaultSize = 5

// LocalCache holds the cached list and its last-update timestamp.
type LocalCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type CatalogSource interface {
	All(ctx context.Context) ([]models.Activity, error)
}

type PreferenceSource interface {
	Preferences(ctx context.Context, userID string) ([]string, error)
}

type Options struct {
	Catalog     CatalogSource
	Preferences PreferenceSource
	Cache       LocalCache
	Size        int
	Location    *time.Location
	Now         func() time.Time
}

type Service struct {
	catalog CatalogSource
	prefs   PreferenceSource
	cache   LocalCache
	size    int
	loc     *time.Location
	now     func() time.Time
}

func NewService(opts Options) *Service {
	s := &Service{
		catalog: opts.Catalog,
		prefs:   opts.Preferences,
		cache:   opts.Cache,
		size:    opts.Size,
		loc:     opts.Location,
		now:     opts.Now,
	}
	if s.size <= 0 {
		s.size = DefaultSize
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func listKey(scope string) string    { return "toppicks:" + scope }
func updatedKey(scope string) string { return "toppicks:" + scope + ":updated" }

// TopPicks returns today's picks for scope, computing them from the
// catalog and userID's preferences when the cache is empty or stale. An
// empty userID selects from the catalog without preferences. On error the
// cache is left as it was.
func (s *Service) TopPicks(ctx context.Context, userID, scope string) ([]models.Activity, error) {
	now := s.now()
	if picks, ok := s.cached(ctx, scope, now); ok {
		return picks, nil
	}

	all, err := s.catalog.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	var prefs []string
	if userID != "" {
		p, err := s.prefs.Preferences(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load preferences: %w", err)
		}
		prefs = p
	}

	picks := Select(all, prefs, s.size)
	s.store(ctx, scope, picks, now)
	return picks, nil
}

// Invalidate forces the next TopPicks call for scope to recompute.
func (s *Service) Invalidate(ctx context.Context, scope string) error {
	if err := s.cache.Set(ctx, updatedKey(scope), ""); err != nil {
		return fmt.Errorf("invalidate %s: %w", scope, err)
	}
	return nil
}

// InvalidateOnPreferenceChange drops a user's cached picks whenever their
// preferences change. The returned function unsubscribes.
func InvalidateOnPreferenceChange(bus *events.Bus, s *Service) func() {
	return bus.Subscribe(func(e events.Event) {
		if e.Kind != events.PreferencesChanged || e.UserID == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := s.Invalidate(ctx, e.UserID); err != nil {
			log.Warn().Err(err).Str("user", e.UserID).Msg("invalidate top picks")
		}
	})
}

func (s *Service) cached(ctx context.Context, scope string, now time.Time) ([]models.Activity, bool) {
	stamp, ok, err := s.cache.Get(ctx, updatedKey(scope))
	if err != nil || !ok || stamp == "" {
		return nil, false
	}
	last, err := time.Parse(time.RFC3339, stamp)
	if err != nil || !sameDay(last, now, s.loc) {
		return nil, false
	}

	raw, ok, err := s.cache.Get(ctx, listKey(scope))
	if err != nil || !ok {
		return nil, false
	}
	var picks []models.Activity
	if err := json.Unmarshal([]byte(raw), &picks); err != nil {
		log.Warn().Err(err).Str("scope", scope).Msg("discarding unreadable top picks cache")
		return nil, false
	}
	return picks, true
}

func (s *Service) store(ctx context.Context, scope string, picks []models.Activity, now time.Time) {
	raw, err := json.Marshal(picks)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, listKey(scope), string(raw)); err != nil {
		log.Warn().Err(err).Str("scope", scope).Msg("cache top picks")
		return
	}
	if err := s.cache.Set(ctx, updatedKey(scope), now.Format(time.RFC3339)); err != nil {
		log.Warn().Err(err).Str("scope", scope).Msg("cache top picks timestamp")
	}
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// Select returns the first n activities whose keywords match a preference,
// or the first n of the catalog when nothing matches. Catalog order is kept.
func Select(catalog []models.Activity, prefs []string, n int) []models.Activity {
	if len(prefs) > 0 {
		matched := make([]models.Activity, 0, n)
		for _, a := range catalog {
			if models.MatchesAny(a.Keywords, prefs) {
				matched = append(matched, a)
				if len(matched) == n {
					break
				}
			}
		}
		if len(matched) > 0 {
			return matched
		}
	}
	if len(catalog) > n {
		catalog = catalog[:n]
	}
	return append(make([]models.Activity, 0, len(catalog)), catalog...)
}

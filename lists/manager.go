// Package lists keeps a signed-in user's bucket list and visited list in
// memory and in step with the store. An activity is in at most one of the
// two lists; both lists are backed by a single record per user and
// activity, so moving between lists overwrites that record.
package lists

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"wanderlist/db"
	"wanderlist/events"
	"wanderlist/keyqueue"
	"wanderlist/models"
	"wanderlist/photos"
	"wanderlist/schema"
	"wanderlist/store"
)

var (
	ErrUnauthenticated = errors.New("lists: no signed-in user")
	ErrInOtherList     = errors.New("lists: activity is already in the other list")
	ErrNotListed       = errors.New("lists: activity is not in the list")
	ErrInvalidRating   = errors.New("lists: rating must be between 1 and 5")
)

const fetchPageSize = 100

type Options struct {
	Store  store.Store
	Photos photos.Searcher
	Bus    *events.Bus
	Now    func() time.Time
}

type Manager struct {
	userID string
	store  store.Store
	photos photos.Searcher
	bus    *events.Bus
	now    func() time.Time
	queue  *keyqueue.Queue

	// gate is held shared by every list write and exclusively by a reload.
	gate sync.RWMutex

	loadMu sync.Mutex
	loaded bool

	mu      sync.RWMutex
	bucket  []models.Activity
	visited []models.Activity
}

// NewManager returns a manager for userID. With an empty userID every
// operation fails with ErrUnauthenticated.
func NewManager(userID string, opts Options) *Manager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		userID: userID,
		store:  opts.Store,
		photos: opts.Photos,
		bus:    opts.Bus,
		now:    now,
		queue:  keyqueue.New(),
	}
}

func (m *Manager) UserID() string { return m.userID }

func (m *Manager) BucketList() []models.Activity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Activity(nil), m.bucket...)
}

func (m *Manager) VisitedList() []models.Activity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Activity(nil), m.visited...)
}

func (m *Manager) Snapshot() models.ListsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return models.ListsSnapshot{
		Bucket:  append([]models.Activity{}, m.bucket...),
		Visited: append([]models.Activity{}, m.visited...),
	}
}

// Load fetches both lists the first time it succeeds. After a failed
// fetch the next Load tries again.
func (m *Manager) Load(ctx context.Context) {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()
	if !m.loaded {
		m.loaded = m.reload(ctx) == nil
	}
}

// Reload replaces both lists with the store's. It waits for list writes
// already running and holds new ones until it is done.
func (m *Manager) Reload(ctx context.Context) error {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()
	err := m.reload(ctx)
	m.loaded = err == nil
	return err
}

func (m *Manager) reload(ctx context.Context) error {
	m.gate.Lock()
	defer m.gate.Unlock()
	return errors.Join(m.refresh(ctx, models.StatusBucketList), m.refresh(ctx, models.StatusVisited))
}

// FetchBucketList replaces the in-memory bucket list with the store's.
// On failure the list is left empty and the error is logged.
func (m *Manager) FetchBucketList(ctx context.Context) {
	m.gate.Lock()
	defer m.gate.Unlock()
	_ = m.refresh(ctx, models.StatusBucketList)
}

func (m *Manager) FetchVisitedList(ctx context.Context) {
	m.gate.Lock()
	defer m.gate.Unlock()
	_ = m.refresh(ctx, models.StatusVisited)
}

// refresh must run with the gate held exclusively.
func (m *Manager) refresh(ctx context.Context, status models.ListStatus) error {
	items, err := m.fetch(ctx, status)
	m.mu.Lock()
	if status == models.StatusVisited {
		m.visited = items
	} else {
		m.bucket = items
	}
	m.mu.Unlock()
	m.changed()
	return err
}

func (m *Manager) fetch(ctx context.Context, status models.ListStatus) ([]models.Activity, error) {
	if m.userID == "" {
		return nil, nil
	}
	docs, err := store.QueryAll(ctx, m.store, store.Query{
		Collection: db.UserActivities,
		Filters: []store.Filter{
			store.Where("userId", store.Eq, m.userID),
			store.Where("status", store.Eq, string(status)),
		},
		OrderBy: store.KeyField,
		Limit:   fetchPageSize,
	})
	if err != nil {
		log.Error().Err(err).Str("userId", m.userID).Str("status", string(status)).Msg("fetch list")
		return nil, fmt.Errorf("fetch %s: %w", status, err)
	}

	out := make([]models.Activity, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	for _, d := range docs {
		rec, err := schema.DecodeUserActivity(d)
		if err != nil {
			log.Warn().Err(err).Str("userId", m.userID).Msg("skipping invalid list record")
			continue
		}
		if seen[rec.ActivityID] {
			continue
		}
		seen[rec.ActivityID] = true
		out = append(out, rec.Activity.WithPlaceholders())
	}
	return out, nil
}

func (m *Manager) AddToBucketList(ctx context.Context, a models.Activity) error {
	if err := m.precheck(a.ActivityID); err != nil {
		return err
	}
	return m.do(ctx, a.ActivityID, func(ctx context.Context) error {
		inBucket, inVisited := m.where(a.ActivityID)
		switch {
		case inBucket:
			return nil
		case inVisited:
			m.toast(events.Error, "This activity is already in your visited list.")
			return ErrInOtherList
		}

		a = m.prepare(ctx, a)
		if err := m.write(ctx, a, models.StatusBucketList); err != nil {
			m.toast(events.Error, "Could not add to your bucket list.")
			return err
		}
		m.mu.Lock()
		m.bucket = append(m.bucket, a)
		m.mu.Unlock()

		m.changed()
		m.toast(events.Success, fmt.Sprintf("Added %s to your bucket list.", a.ActivityFullName))
		return nil
	})
}

// RemoveFromBucketList deletes the record even when the activity is not in
// the local list. An activity held in the visited list is left untouched
// and no delete is issued, since both lists share its record.
func (m *Manager) RemoveFromBucketList(ctx context.Context, activityID string) error {
	if err := m.precheck(activityID); err != nil {
		return err
	}
	return m.do(ctx, activityID, func(ctx context.Context) error {
		inBucket, inVisited := m.where(activityID)
		if inVisited {
			return nil
		}
		if err := m.delete(ctx, activityID); err != nil {
			m.toast(events.Error, "Could not remove from your bucket list.")
			return err
		}
		if !inBucket {
			return nil
		}
		m.mu.Lock()
		m.bucket = without(m.bucket, activityID)
		m.mu.Unlock()

		m.changed()
		m.toast(events.Success, "Removed from your bucket list.")
		return nil
	})
}

// AddToVisitedList records a as visited. An activity currently in the
// bucket list is moved.
func (m *Manager) AddToVisitedList(ctx context.Context, a models.Activity) error {
	if err := m.precheck(a.ActivityID); err != nil {
		return err
	}
	return m.do(ctx, a.ActivityID, func(ctx context.Context) error {
		inBucket, inVisited := m.where(a.ActivityID)
		if inVisited {
			return nil
		}
		if inBucket {
			return m.moveLocked(ctx, a.ActivityID)
		}

		a = m.prepare(ctx, a)
		if err := m.write(ctx, a, models.StatusVisited); err != nil {
			m.toast(events.Error, "Could not add to your visited list.")
			return err
		}
		m.mu.Lock()
		m.visited = append(m.visited, a)
		m.mu.Unlock()

		m.changed()
		m.toast(events.Success, fmt.Sprintf("Added %s to your visited list.", a.ActivityFullName))
		return nil
	})
}

// RemoveVisitedActivity deletes the record even when the activity is not
// in the local list. An activity held in the bucket list is left untouched
// and no delete is issued.
func (m *Manager) RemoveVisitedActivity(ctx context.Context, activityID string) error {
	if err := m.precheck(activityID); err != nil {
		return err
	}
	return m.do(ctx, activityID, func(ctx context.Context) error {
		inBucket, inVisited := m.where(activityID)
		if inBucket {
			return nil
		}
		if err := m.delete(ctx, activityID); err != nil {
			m.toast(events.Error, "Could not remove from your visited list.")
			return err
		}
		if !inVisited {
			return nil
		}
		m.mu.Lock()
		m.visited = without(m.visited, activityID)
		m.mu.Unlock()

		m.changed()
		m.toast(events.Success, "Removed from your visited list.")
		return nil
	})
}

// MoveToVisited moves a bucket-list activity to the visited list.
func (m *Manager) MoveToVisited(ctx context.Context, activityID string) error {
	if err := m.precheck(activityID); err != nil {
		return err
	}
	return m.do(ctx, activityID, func(ctx context.Context) error {
		return m.moveLocked(ctx, activityID)
	})
}

// moveLocked must run inside the activity's queue slot.
func (m *Manager) moveLocked(ctx context.Context, activityID string) error {
	m.mu.RLock()
	idx := indexOf(m.bucket, activityID)
	var a models.Activity
	if idx >= 0 {
		a = m.bucket[idx]
	}
	m.mu.RUnlock()
	if idx < 0 {
		return ErrNotListed
	}

	if err := m.write(ctx, a, models.StatusVisited); err != nil {
		m.toast(events.Error, "Could not mark the activity as visited.")
		return err
	}
	m.mu.Lock()
	m.bucket = without(m.bucket, activityID)
	m.visited = append(m.visited, a)
	m.mu.Unlock()

	m.changed()
	m.toast(events.Success, fmt.Sprintf("Moved %s to your visited list.", a.ActivityFullName))
	return nil
}

// SetRating stores a 1 to 5 rating on a visited activity.
func (m *Manager) SetRating(ctx context.Context, activityID string, rating int) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	return m.updateVisited(ctx, activityID, store.Document{"rating": rating}, func(a *models.Activity) {
		a.Rating = rating
	})
}

// SetNote stores a free-text note on a visited activity.
func (m *Manager) SetNote(ctx context.Context, activityID, note string) error {
	note = strings.TrimSpace(note)
	return m.updateVisited(ctx, activityID, store.Document{"note": note}, func(a *models.Activity) {
		a.Note = note
	})
}

func (m *Manager) updateVisited(ctx context.Context, activityID string, fields store.Document, apply func(*models.Activity)) error {
	if err := m.precheck(activityID); err != nil {
		return err
	}
	return m.do(ctx, activityID, func(ctx context.Context) error {
		if _, inVisited := m.where(activityID); !inVisited {
			return ErrNotListed
		}
		key := models.RecordKey(m.userID, activityID)
		if err := m.store.Set(ctx, db.UserActivities, key, fields, store.SetOptions{Merge: true}); err != nil {
			m.toast(events.Error, "Could not save your changes.")
			return fmt.Errorf("update %s: %w", key, err)
		}
		m.mu.Lock()
		if i := indexOf(m.visited, activityID); i >= 0 {
			apply(&m.visited[i])
		}
		m.mu.Unlock()
		m.changed()
		return nil
	})
}

// do runs fn in activityID's queue slot, outside any reload.
func (m *Manager) do(ctx context.Context, activityID string, fn func(context.Context) error) error {
	return m.queue.Do(ctx, activityID, func(ctx context.Context) error {
		m.gate.RLock()
		defer m.gate.RUnlock()
		return fn(ctx)
	})
}

func (m *Manager) precheck(activityID string) error {
	if m.userID == "" {
		return ErrUnauthenticated
	}
	if strings.TrimSpace(activityID) == "" {
		return &schema.ValidationError{Entity: "activity", Missing: []string{"activity_id"}}
	}
	return nil
}

func (m *Manager) where(activityID string) (inBucket, inVisited bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return indexOf(m.bucket, activityID) >= 0, indexOf(m.visited, activityID) >= 0
}

// prepare fills placeholders and resolves a photo when none is set.
func (m *Manager) prepare(ctx context.Context, a models.Activity) models.Activity {
	if a.ImageURL == "" {
		a.ImageURL = photos.Resolve(ctx, m.photos, a.DisplayName())
	}
	a.Rating = 0
	a.Note = ""
	return a.WithPlaceholders()
}

func (m *Manager) write(ctx context.Context, a models.Activity, status models.ListStatus) error {
	key := models.RecordKey(m.userID, a.ActivityID)
	doc, err := schema.Encode(models.UserActivityRecord{
		Activity:  a,
		UserID:    m.userID,
		Status:    status,
		Timestamp: m.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := m.store.Set(ctx, db.UserActivities, key, doc, store.SetOptions{}); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (m *Manager) delete(ctx context.Context, activityID string) error {
	key := models.RecordKey(m.userID, activityID)
	if err := m.store.Delete(ctx, db.UserActivities, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (m *Manager) changed() {
	m.bus.Publish(events.Event{Kind: events.ListsChanged, UserID: m.userID, Payload: m.Snapshot()})
}

func (m *Manager) toast(level events.Level, msg string) {
	m.bus.Toast(m.userID, level, msg)
}

func indexOf(items []models.Activity, id string) int {
	for i, a := range items {
		if a.ActivityID == id {
			return i
		}
	}
	return -1
}

func without(items []models.Activity, id string) []models.Activity {
	out := items[:0:0]
	for _, a := range items {
		if a.ActivityID != id {
			out = append(out, a)
		}
	}
	return out
}

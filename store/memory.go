package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is an in-process Store. Documents keep insertion order, which is
// the natural order for queries without OrderBy.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	keys []string
	docs map[string]Document
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string]*memCollection)}
}

func (m *Memory) Get(ctx context.Context, collection, key string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	c := m.collections[collection]
	if c == nil {
		return nil, ErrNotFound
	}
	doc, ok := c.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return doc.Clone(), nil
}

func (m *Memory) Set(ctx context.Context, collection, key string, doc Document, opts SetOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.collections[collection]
	if c == nil {
		c = &memCollection{docs: make(map[string]Document)}
		m.collections[collection] = c
	}

	existing, ok := c.docs[key]
	if !ok {
		c.keys = append(c.keys, key)
	}

	var next Document
	if opts.Merge && ok {
		next = existing.Clone()
		for k, v := range doc {
			next[k] = v
		}
	} else {
		next = doc.Clone()
	}
	next[KeyField] = key
	c.docs[key] = next
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.collections[collection]
	if c == nil {
		return nil
	}
	if _, ok := c.docs[key]; !ok {
		return nil
	}
	delete(c.docs, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) Query(ctx context.Context, q Query) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	offset, err := decodeCursor(q.Cursor)
	if err != nil {
		return Page{}, err
	}

	m.mu.RLock()
	var matched []Document
	if c := m.collections[q.Collection]; c != nil {
		for _, k := range c.keys {
			doc := c.docs[k]
			if matchesAll(doc, q.Filters) {
				matched = append(matched, doc.Clone())
			}
		}
	}
	m.mu.RUnlock()

	if q.OrderBy != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			c, ok := compare(matched[i][q.OrderBy], matched[j][q.OrderBy])
			return ok && c < 0
		})
	}

	limit := limitOf(q)
	if offset >= len(matched) {
		return Page{Documents: []Document{}}, nil
	}
	end := offset + limit
	page := Page{}
	if end < len(matched) {
		page.NextCursor = encodeCursor(end)
	} else {
		end = len(matched)
	}
	page.Documents = matched[offset:end]
	return page, nil
}

func matchesAll(doc Document, filters []Filter) bool {
	for _, f := range filters {
		v, ok := doc[f.Field]
		if !ok {
			return false
		}
		c, ok := compare(v, f.Value)
		if !ok {
			return false
		}
		switch f.Op {
		case Eq:
			if c != 0 {
				return false
			}
		case Gte:
			if c < 0 {
				return false
			}
		case Lte:
			if c > 0 {
				return false
			}
		default:
			panic(fmt.Sprintf("store: unsupported operator %q", f.Op))
		}
	}
	return true
}

// compare orders two scalar values. Strings compare bytewise, numbers
// numerically, times chronologically. Mixed kinds are not comparable.
func compare(a, b any) (int, bool) {
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case as < bs:
			return -1, true
		case as > bs:
			return 1, true
		}
		return 0, true
	}
	if at, ok := asTime(a); ok {
		bt, ok := asTime(b)
		if !ok {
			return 0, false
		}
		return at.Compare(bt), true
	}
	af, ok := asFloat(a)
	if !ok {
		if ab, isBool := a.(bool); isBool {
			bb, ok := b.(bool)
			if !ok || ab != bb {
				return 1, ok
			}
			return 0, true
		}
		return 0, false
	}
	bf, ok := asFloat(b)
	if !ok {
		return 0, false
	}
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	}
	return 0, true
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case primitive.DateTime:
		return t.Time(), true
	}
	return time.Time{}, false
}

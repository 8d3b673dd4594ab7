// Package store is the document persistence boundary. Collections hold
// documents addressed by a string key; queries support equality and range
// filters with cursor pagination.
package store

import (
	"context"
	"errors"
)

// KeyField is set on every document returned by a Store.
const KeyField = "_id"

var (
	ErrNotFound    = errors.New("store: document not found")
	ErrUnavailable = errors.New("store: unavailable")
	ErrBadCursor   = errors.New("store: invalid cursor")
)

type Document map[string]any

// String returns the field as a string, or "" when absent or not a string.
func (d Document) String(field string) string {
	s, _ := d[field].(string)
	return s
}

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

type Op string

const (
	Eq  Op = "=="
	Gte Op = ">="
	Lte Op = "<="
)

type Filter struct {
	Field string
	Op    Op
	Value any
}

func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string // ascending; empty keeps natural order
	Limit      int
	Cursor     string
}

type Page struct {
	Documents  []Document
	NextCursor string // empty on the last page
}

type SetOptions struct {
	// Merge updates only the given fields instead of replacing the document.
	Merge bool
}

type Store interface {
	Get(ctx context.Context, collection, key string) (Document, error)
	Set(ctx context.Context, collection, key string, doc Document, opts SetOptions) error
	Delete(ctx context.Context, collection, key string) error
	Query(ctx context.Context, q Query) (Page, error)
}

// DefaultLimit applies when a Query carries no limit.
const DefaultLimit = 100

// QueryAll walks every page of q and returns all documents.
func QueryAll(ctx context.Context, s Store, q Query) ([]Document, error) {
	var all []Document
	for {
		page, err := s.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Documents...)
		if page.NextCursor == "" {
			return all, nil
		}
		q.Cursor = page.NextCursor
	}
}

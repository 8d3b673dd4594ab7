// Package storetest provides a Store wrapper that counts calls and injects
// failures.
package storetest

import (
	"context"
	"sync"

	"wanderlist/store"
)

type Recorder struct {
	Next store.Store

	mu     sync.Mutex
	counts map[string]int
	fail   map[string]error
}

func NewRecorder(next store.Store) *Recorder {
	return &Recorder{Next: next, counts: map[string]int{}, fail: map[string]error{}}
}

// FailOn makes every later call to method ("Get", "Set", "Delete", "Query")
// return err. A nil err clears the failure.
func (r *Recorder) FailOn(method string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.fail, method)
		return
	}
	r.fail[method] = err
}

func (r *Recorder) Calls(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[method]
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = map[string]int{}
}

func (r *Recorder) enter(method string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[method]++
	return r.fail[method]
}

func (r *Recorder) Get(ctx context.Context, collection, key string) (store.Document, error) {
	if err := r.enter("Get"); err != nil {
		return nil, err
	}
	return r.Next.Get(ctx, collection, key)
}

func (r *Recorder) Set(ctx context.Context, collection, key string, doc store.Document, opts store.SetOptions) error {
	if err := r.enter("Set"); err != nil {
		return err
	}
	return r.Next.Set(ctx, collection, key, doc, opts)
}

func (r *Recorder) Delete(ctx context.Context, collection, key string) error {
	if err := r.enter("Delete"); err != nil {
		return err
	}
	return r.Next.Delete(ctx, collection, key)
}

func (r *Recorder) Query(ctx context.Context, q store.Query) (store.Page, error) {
	if err := r.enter("Query"); err != nil {
		return store.Page{}, err
	}
	return r.Next.Query(ctx, q)
}

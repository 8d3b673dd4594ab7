package photos

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"wanderlist/models"
)

func newTestUnsplash(url string) *Unsplash {
	u := NewUnsplash(url, "key-123", 1000)
	u.backoff = 0
	return u
}

func TestUnsplashReturnsFirstRegularURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Client-ID key-123" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if r.URL.Query().Get("query") != "Eiffel Tower" || r.URL.Query().Get("per_page") != "1" {
			t.Errorf("query = %v", r.URL.Query())
		}
		w.Write([]byte(`{"results":[{"urls":{"regular":"https://img/1.jpg"}}]}`))
	}))
	defer srv.Close()

	got, err := newTestUnsplash(srv.URL).Search(context.Background(), "Eiffel Tower")
	if err != nil || got != "https://img/1.jpg" {
		t.Fatalf("Search = %q, %v", got, err)
	}
}

func TestUnsplashRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"results":[{"urls":{"regular":"https://img/2.jpg"}}]}`))
	}))
	defer srv.Close()

	got, err := newTestUnsplash(srv.URL).Search(context.Background(), "Colosseum")
	if err != nil || got != "https://img/2.jpg" {
		t.Fatalf("Search = %q, %v", got, err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestUnsplashGivesUpAfterThreeAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := newTestUnsplash(srv.URL).Search(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestUnsplashNoResultsAndClientErrorsDoNotRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Query().Get("query") == "forbidden" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	u := newTestUnsplash(srv.URL)
	if _, err := u.Search(context.Background(), "nothing"); !errors.Is(err, ErrNoPhoto) {
		t.Fatalf("err = %v, want ErrNoPhoto", err)
	}
	if _, err := u.Search(context.Background(), "forbidden"); err == nil {
		t.Fatal("expected 401 error")
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

type mapCache struct {
	mu sync.Mutex
	m  map[string]string
}

func (c *mapCache) Get(_ context.Context, k string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[k]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, k, v string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[k] = v
	return nil
}

type countingSearcher struct {
	calls int
	url   string
	err   error
}

func (s *countingSearcher) Search(context.Context, string) (string, error) {
	s.calls++
	return s.url, s.err
}

func TestCachedRemembersHitsAndMisses(t *testing.T) {
	ctx := context.Background()
	hit := &countingSearcher{url: "https://img/3.jpg"}
	c := NewCached(hit, &mapCache{m: map[string]string{}})
	for i := 0; i < 3; i++ {
		if got, _ := c.Search(ctx, "Louvre "); got != "https://img/3.jpg" {
			t.Fatalf("Search = %q", got)
		}
	}
	if hit.calls != 1 {
		t.Fatalf("upstream calls = %d, want 1", hit.calls)
	}

	miss := &countingSearcher{err: ErrNoPhoto}
	c = NewCached(miss, &mapCache{m: map[string]string{}})
	for i := 0; i < 2; i++ {
		if _, err := c.Search(ctx, "nowhere"); !errors.Is(err, ErrNoPhoto) {
			t.Fatalf("err = %v", err)
		}
	}
	if miss.calls != 1 {
		t.Fatalf("upstream calls for miss = %d, want 1", miss.calls)
	}
}

func TestResolveFallsBackToPlaceholder(t *testing.T) {
	ctx := context.Background()
	if got := Resolve(ctx, nil, "x"); got != models.PlaceholderImage {
		t.Fatalf("nil searcher = %q", got)
	}
	if got := Resolve(ctx, &countingSearcher{err: errors.New("down")}, "x"); got != models.PlaceholderImage {
		t.Fatalf("failing searcher = %q", got)
	}
	if got := Resolve(ctx, &countingSearcher{url: "https://img/4.jpg"}, "x"); got != "https://img/4.jpg" {
		t.Fatalf("working searcher = %q", got)
	}
}

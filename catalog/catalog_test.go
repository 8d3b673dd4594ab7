package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"wanderlist/cache"
	"wanderlist/db"
	"wanderlist/store"
	"wanderlist/store/storetest"
)

func seedActivities(t *testing.T, s store.Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("a%02d", i)
		doc := store.Document{"activity_id": id, "activity_full_name": "Activity " + id, "activities_keywords": "Nature"}
		if err := s.Set(context.Background(), db.Activities, id, doc, store.SetOptions{}); err != nil {
			t.Fatal(err)
		}
	}
}

func TestAllWalksEveryPageAndSkipsInvalid(t *testing.T) {
	mem := store.NewMemory()
	seedActivities(t, mem, 25)
	_ = mem.Set(context.Background(), db.Activities, "broken", store.Document{"activity_full_name": "No id"}, store.SetOptions{})

	rec := storetest.NewRecorder(mem)
	c := New(rec, nil, 10)
	all, err := c.All(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 25 {
		t.Fatalf("All returned %d, want 25", len(all))
	}
	if all[0].ActivityID != "a00" || all[24].ActivityID != "a24" {
		t.Fatalf("key order lost: first %s last %s", all[0].ActivityID, all[24].ActivityID)
	}
	if rec.Calls("Query") != 3 {
		t.Fatalf("queries = %d, want 3", rec.Calls("Query"))
	}
}

func TestPageOrdersByKey(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	for _, id := range []string{"a02", "a00", "a01"} {
		_ = mem.Set(ctx, db.Activities, id, store.Document{"activity_id": id, "activity_full_name": "Activity " + id}, store.SetOptions{})
	}
	c := New(mem, nil, 2)

	first, next, err := c.Page(ctx, "", 2)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := c.Page(ctx, next, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 2 || first[0].ActivityID != "a00" || first[1].ActivityID != "a01" {
		t.Fatalf("first page = %+v", first)
	}
	if len(second) != 1 || second[0].ActivityID != "a02" {
		t.Fatalf("second page = %+v", second)
	}
}

func TestAttractionIsMemoized(t *testing.T) {
	mem := store.NewMemory()
	_ = mem.Set(context.Background(), db.Attractions, "t1", store.Document{"attraction_id": "t1"}, store.SetOptions{})
	rec := storetest.NewRecorder(mem)

	memo, err := cache.New(100, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer memo.Close()
	c := New(rec, memo, 0)

	a, err := c.Attraction(context.Background(), "t1")
	if err != nil {
		t.Fatal(err)
	}
	if a.AttractionName != "Unknown Attraction" || a.OpeningHour != "Opening hours not available" {
		t.Fatalf("defaults not applied: %+v", a)
	}
	memo.Wait()
	if _, err := c.Attraction(context.Background(), "t1"); err != nil {
		t.Fatal(err)
	}
	if rec.Calls("Get") != 1 {
		t.Fatalf("store gets = %d, want 1", rec.Calls("Get"))
	}

	if _, err := c.Attraction(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestListActivitiesHandlerPaginates(t *testing.T) {
	mem := store.NewMemory()
	seedActivities(t, mem, 3)
	h := Handlers{Catalog: New(mem, nil, 100)}

	rec := httptest.NewRecorder()
	h.ListActivities(rec, httptest.NewRequest("GET", "/api/activities?limit=2", nil), nil)
	var body struct {
		Activities []map[string]any `json:"activities"`
		NextCursor string           `json:"nextCursor"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Activities) != 2 || body.NextCursor == "" {
		t.Fatalf("page = %+v", body)
	}

	rec = httptest.NewRecorder()
	h.GetActivity(rec, httptest.NewRequest("GET", "/api/activities/zz", nil), httprouter.Params{{Key: "id", Value: "zz"}})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing activity code = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ListActivities(rec, httptest.NewRequest("GET", "/api/activities?cursor=%21%21", nil), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad cursor code = %d", rec.Code)
	}
}

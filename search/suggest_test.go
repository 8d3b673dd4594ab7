package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wanderlist/db"
	"wanderlist/store"
	"wanderlist/store/storetest"
)

func seedActivities(t *testing.T, names ...string) *store.Memory {
	t.Helper()
	m := store.NewMemory()
	for i, n := range names {
		id := string(rune('a' + i))
		doc := store.Document{"activity_id": id, "activity_full_name": n, "activity_name": n}
		if err := m.Set(context.Background(), db.Activities, id, doc, store.SetOptions{}); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func TestSuggestPrefixRangeAndRanking(t *testing.T) {
	m := seedActivities(t, "Tourism Walk", "Museum Tour", "Tour", "Tour Eiffel", "tour boat")
	s := NewSuggester(m, 2)

	got, err := s.Suggest(context.Background(), "  Tour ")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d suggestions, want 2", len(got))
	}
	if got[0].ActivityFullName != "Tour" {
		t.Fatalf("exact match should rank first, got %q", got[0].ActivityFullName)
	}
	for _, a := range got {
		if !strings.HasPrefix(a.ActivityFullName, "Tour") {
			t.Fatalf("unexpected suggestion %q", a.ActivityFullName)
		}
	}

	all, err := s.Search(context.Background(), "Tour")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("search returned %d, want 3 case-sensitive prefix matches", len(all))
	}
}

func TestSuggestBlankTermSkipsStore(t *testing.T) {
	rec := storetest.NewRecorder(store.NewMemory())
	got, err := NewSuggester(rec, 0).Suggest(context.Background(), "   ")
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
	if n := rec.Calls("Query"); n != 0 {
		t.Fatalf("blank term issued %d queries", n)
	}
}

func TestSuggestHandlerReportsStoreFailure(t *testing.T) {
	rec := storetest.NewRecorder(store.NewMemory())
	rec.FailOn("Query", errors.New("down"))
	h := Handlers{Suggester: NewSuggester(rec, 5)}

	w := httptest.NewRecorder()
	h.Suggest(w, httptest.NewRequest(http.MethodGet, "/api/search/suggest?q=tour", nil), nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", w.Code)
	}
}

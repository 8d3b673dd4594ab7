package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"wanderlist/auth"
	"wanderlist/catalog"
	"wanderlist/db"
	"wanderlist/events"
	"wanderlist/lists"
	"wanderlist/maps"
	"wanderlist/notify"
	"wanderlist/profile"
	"wanderlist/ratelim"
	"wanderlist/rdx"
	"wanderlist/search"
	"wanderlist/store"
	"wanderlist/toppicks"
)

func newTestRouter(t *testing.T) (*httprouter.Router, *lists.Registry) {
	t.Helper()
	mem := store.NewMemory()
	for _, d := range []store.Document{
		{"activity_id": "a1", "activity_full_name": "Tram 28 Ride", "activities_keywords": "history"},
		{"activity_id": "a2", "activity_full_name": "Fado Night", "activities_keywords": "music"},
	} {
		if err := mem.Set(context.Background(), db.Activities, d.String("activity_id"), d, store.SetOptions{}); err != nil {
			t.Fatal(err)
		}
	}

	bus := events.NewBus()
	authSvc := auth.NewService(mem, auth.Config{Secret: []byte("test-secret"), TokenTTL: time.Hour})
	registry := lists.NewRegistry(lists.Options{Store: mem, Bus: bus})
	authSvc.OnAuthStateChange(registry.HandleAuthState)
	cat := catalog.New(mem, nil, 0)
	profiles := profile.NewService(profile.Options{Store: mem, Bus: bus, UploadDir: t.TempDir()})

	hub := notify.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	router := httprouter.New()
	RoutesWrapper(router, Deps{
		Auth:     authSvc,
		Catalog:  cat,
		Lists:    registry,
		TopPicks: toppicks.NewService(toppicks.Options{Catalog: cat, Preferences: profiles, Cache: rdx.Discard{}}),
		Search:   search.NewSuggester(mem, 5),
		Profile:  profiles,
		Geocoder: maps.Disabled{},
		Hub:      hub,
		WS:       notify.Options{Verifier: authSvc},

		PublicURL:   "http://localhost",
		UploadDir:   t.TempDir(),
		RateLimiter: ratelim.NewRateLimiter(1000, 1000),
	})
	return router, registry
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.RemoteAddr = "10.0.0.1:1234"
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestPublicRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/activities", http.StatusOK},
		{http.MethodGet, "/api/activities/a1", http.StatusOK},
		{http.MethodGet, "/api/activities/missing", http.StatusNotFound},
		{http.MethodGet, "/api/toppicks", http.StatusOK},
		{http.MethodGet, "/api/search/suggest?q=Tram", http.StatusOK},
		{http.MethodGet, "/api/share/a1/qr", http.StatusOK},
		{http.MethodGet, "/api/lists/bucket", http.StatusUnauthorized},
		{http.MethodPut, "/api/me/preferences", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if w := do(t, router, tt.method, tt.path, "", ""); w.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.want, w.Body)
			}
		})
	}
}

func TestSignedInListFlow(t *testing.T) {
	router, registry := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/api/auth/register", "", `{"email":"ana@example.com","password":"secret1"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", w.Code, w.Body)
	}
	var sess auth.Session
	if err := json.Unmarshal(w.Body.Bytes(), &sess); err != nil || sess.Token == "" {
		t.Fatalf("session = %+v, err = %v", sess, err)
	}
	// Sign-in loads the lists in the background.
	deadline := time.Now().Add(time.Second)
	for registry.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if w := do(t, router, http.MethodPost, "/api/lists/bucket", sess.Token, `{"activity_id":"a1"}`); w.Code != http.StatusOK {
		t.Fatalf("add status = %d: %s", w.Code, w.Body)
	}
	if w := do(t, router, http.MethodPost, "/api/lists/bucket/a1/visit", sess.Token, ""); w.Code != http.StatusOK {
		t.Fatalf("move status = %d: %s", w.Code, w.Body)
	}

	w = do(t, router, http.MethodGet, "/api/lists/visited", sess.Token, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"a1"`) {
		t.Fatalf("visited = %d %s", w.Code, w.Body)
	}

	if w := do(t, router, http.MethodPost, "/api/auth/logout", sess.Token, ""); w.Code != http.StatusOK {
		t.Fatalf("logout status = %d", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/api/lists/bucket", sess.Token, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("revoked token status = %d", w.Code)
	}
}

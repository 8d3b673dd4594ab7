package maps

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func geocodeServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "k" {
			t.Errorf("missing key param")
		}
		switch r.URL.Query().Get("address") {
		case "Paris, France":
			w.Write([]byte(`{"status":"OK","results":[{"geometry":{"location":{"lat":48.85,"lng":2.35}}}]}`))
		default:
			w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGoogleGeocode(t *testing.T) {
	g := NewGoogle(geocodeServer(t).URL, "k")

	loc, ok := g.Geocode(context.Background(), "Paris", "France")
	if !ok || loc.Lat != 48.85 || loc.Lng != 2.35 {
		t.Fatalf("Geocode = %+v, %v", loc, ok)
	}
	if _, ok := g.Geocode(context.Background(), "Atlantis", "Nowhere"); ok {
		t.Fatal("expected not found")
	}
	if _, ok := g.Geocode(context.Background(), " ", ""); ok {
		t.Fatal("empty address should not resolve")
	}
}

func TestGeocodeHandler(t *testing.T) {
	h := GeocodeHandler(NewGoogle(geocodeServer(t).URL, "k"))

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest("GET", "/api/geocode?city=Paris&country=France", nil), nil)
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["found"] != true || body["lat"].(float64) != 48.85 {
		t.Fatalf("body = %v", body)
	}

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest("GET", "/api/geocode", nil), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", rec.Code)
	}
}

// Package maps resolves city and country names to coordinates.
package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Geocoder interface {
	// Geocode reports false when the place cannot be resolved.
	Geocode(ctx context.Context, city, country string) (Location, bool)
}

// Disabled never resolves a place. It stands in when no API key is set.
type Disabled struct{}

func (Disabled) Geocode(context.Context, string, string) (Location, bool) { return Location{}, false }

// Google calls the Google Maps Geocoding API.
type Google struct {
	baseURL string
	key     string
	client  *http.Client
}

func NewGoogle(baseURL, key string) *Google {
	return &Google{baseURL: baseURL, key: key, client: &http.Client{Timeout: 5 * time.Second}}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location Location `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (g *Google) Geocode(ctx context.Context, city, country string) (Location, bool) {
	address := strings.Trim(strings.TrimSpace(city)+", "+strings.TrimSpace(country), ", ")
	if address == "" {
		return Location{}, false
	}

	q := url.Values{}
	q.Set("address", address)
	q.Set("key", g.key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Location{}, false
	}

	loc, err := g.do(req)
	if err != nil {
		log.Warn().Err(err).Str("address", address).Msg("geocoding failed")
		return Location{}, false
	}
	return loc, true
}

func (g *Google) do(req *http.Request) (Location, error) {
	resp, err := g.client.Do(req)
	if err != nil {
		return Location{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("status %d", resp.StatusCode)
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Location{}, fmt.Errorf("decode: %w", err)
	}
	if body.Status != "OK" || len(body.Results) == 0 {
		return Location{}, fmt.Errorf("geocoder status %q", body.Status)
	}
	return body.Results[0].Geometry.Location, nil
}

package photos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	defaultAttempts = 3
	requestTimeout  = 5 * time.Second
)

// Unsplash searches the Unsplash photo API, returning the regular-size
// URL of the first result.
type Unsplash struct {
	baseURL   string
	accessKey string
	client    *http.Client
	limiter   *rate.Limiter
	attempts  int
	backoff   time.Duration
}

// NewUnsplash limits outgoing calls to perSecond requests.
func NewUnsplash(baseURL, accessKey string, perSecond float64) *Unsplash {
	return &Unsplash{
		baseURL:   baseURL,
		accessKey: accessKey,
		client:    &http.Client{Timeout: requestTimeout},
		limiter:   rate.NewLimiter(rate.Limit(perSecond), 1),
		attempts:  defaultAttempts,
		backoff:   200 * time.Millisecond,
	}
}

type searchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

type retryableError struct{ err error }

func (e retryableError) Error() string { return e.err.Error() }
func (e retryableError) Unwrap() error { return e.err }

func (u *Unsplash) Search(ctx context.Context, query string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= u.attempts; attempt++ {
		if err := u.limiter.Wait(ctx); err != nil {
			return "", err
		}
		photo, err := u.searchOnce(ctx, query)
		if err == nil {
			return photo, nil
		}
		var re retryableError
		if !errors.As(err, &re) {
			return "", err
		}
		lastErr = err
		log.Debug().Err(err).Int("attempt", attempt).Str("query", query).Msg("unsplash retry")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(u.backoff * time.Duration(attempt)):
		}
	}
	return "", fmt.Errorf("unsplash: %d attempts: %w", u.attempts, lastErr)
}

func (u *Unsplash) searchOnce(ctx context.Context, query string) (string, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Client-ID "+u.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := u.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", retryableError{err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", retryableError{fmt.Errorf("unsplash: status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("unsplash: status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("unsplash: decode: %w", err)
	}
	if len(body.Results) == 0 || body.Results[0].URLs.Regular == "" {
		return "", ErrNoPhoto
	}
	return body.Results[0].URLs.Regular, nil
}

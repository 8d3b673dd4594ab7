package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Provider verifies a credential issued by a federated identity provider.
type Provider interface {
	Name() string
	Verify(ctx context.Context, credential string) (Identity, error)
}

type Identity struct {
	Subject       string
	Email         string
	DisplayName   string
	EmailVerified bool
}

// Google checks ID tokens against Google's tokeninfo endpoint and
// requires the audience to match ClientID.
type Google struct {
	ClientID string
	Endpoint string
	Client   *http.Client
}

const googleTokenInfo = "https://oauth2.googleapis.com/tokeninfo"

func NewGoogle(clientID string) *Google {
	return &Google{
		ClientID: clientID,
		Endpoint: googleTokenInfo,
		Client:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (g *Google) Name() string { return "google" }

func (g *Google) Verify(ctx context.Context, idToken string) (Identity, error) {
	if idToken == "" {
		return Identity{}, errors.New("empty id token")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.Endpoint+"?id_token="+url.QueryEscape(idToken), nil)
	if err != nil {
		return Identity{}, err
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("tokeninfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("tokeninfo: status %d", resp.StatusCode)
	}

	var info struct {
		Aud           string `json:"aud"`
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified string `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Identity{}, fmt.Errorf("tokeninfo: %w", err)
	}
	if info.Aud != g.ClientID {
		return Identity{}, errors.New("token audience mismatch")
	}
	if info.Sub == "" {
		return Identity{}, errors.New("token has no subject")
	}
	return Identity{
		Subject:       info.Sub,
		Email:         info.Email,
		DisplayName:   info.Name,
		EmailVerified: info.EmailVerified == "true",
	}, nil
}

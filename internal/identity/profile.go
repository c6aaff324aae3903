// AngelaMos | 2026
// profile.go

package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/carmarket/carmarket-api/internal/config"
	"github.com/carmarket/carmarket-api/internal/core"
)

// Profile holds the provider-sourced descriptive fields copied onto a
// newly created account. All fields are optional on the provider side.
type Profile struct {
	Email     string
	FirstName string
	LastName  string
}

// ProfileClient fetches profile data from the provider's userinfo
// endpoint using the caller's own bearer token.
type ProfileClient struct {
	cfg    config.IdentityConfig
	client *http.Client
}

func NewProfileClient(cfg config.IdentityConfig) *ProfileClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &ProfileClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *ProfileClient) Fetch(
	ctx context.Context,
	rawToken string,
) (*Profile, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.cfg.ProfileURL,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+rawToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", core.ErrUpstream)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(
			"fetch profile: provider returned %d: %w",
			resp.StatusCode,
			core.ErrUpstream,
		)
	}

	var body struct {
		Email      string `json:"email"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode profile: %w", core.ErrUpstream)
	}

	return &Profile{
		Email:     body.Email,
		FirstName: body.GivenName,
		LastName:  body.FamilyName,
	}, nil
}

// AngelaMos | 2026
// profile_test.go

package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carmarket/carmarket-api/internal/config"
	"github.com/carmarket/carmarket-api/internal/core"
)

func profileConfig(url string) config.IdentityConfig {
	return config.IdentityConfig{
		ProfileURL:     url,
		RequestTimeout: 5 * time.Second,
	}
}

func TestFetchProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			//nolint:errcheck // test server
			_, _ = w.Write([]byte(
				`{"email":"jane@example.com",` +
					`"given_name":"Jane","family_name":"Doe"}`,
			))
		},
	))
	t.Cleanup(server.Close)

	client := NewProfileClient(profileConfig(server.URL))

	profile, err := client.Fetch(t.Context(), "token-abc")
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", profile.Email)
	assert.Equal(t, "Jane", profile.FirstName)
	assert.Equal(t, "Doe", profile.LastName)
}

func TestFetchProfileProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
	))
	t.Cleanup(server.Close)

	client := NewProfileClient(profileConfig(server.URL))

	_, err := client.Fetch(t.Context(), "token")
	require.ErrorIs(t, err, core.ErrUpstream)
}

func TestFetchProfileUnreachableProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {},
	))
	server.Close()

	client := NewProfileClient(profileConfig(server.URL))

	_, err := client.Fetch(t.Context(), "token")
	require.ErrorIs(t, err, core.ErrUpstream)
}

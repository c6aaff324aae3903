// AngelaMos | 2026
// verifier_test.go

package identity

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carmarket/carmarket-api/internal/config"
	"github.com/carmarket/carmarket-api/internal/core"
)

const (
	testIssuer   = "https://issuer.example.com"
	testAudience = "carmarket"
)

type testProvider struct {
	privateKey jwk.Key
	server     *httptest.Server
}

func newTestProvider(t *testing.T) *testProvider {
	t.Helper()

	raw, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	privateKey, err := jwk.Import(raw)
	require.NoError(t, err)
	require.NoError(t, privateKey.Set(jwk.KeyIDKey, "test-key-1"))
	require.NoError(t, privateKey.Set(jwk.AlgorithmKey, jwa.ES256()))

	publicKey, err := privateKey.PublicKey()
	require.NoError(t, err)

	set := jwk.NewSet()
	require.NoError(t, set.AddKey(publicKey))

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			//nolint:errcheck // test server
			_ = json.NewEncoder(w).Encode(set)
		},
	))
	t.Cleanup(server.Close)

	return &testProvider{privateKey: privateKey, server: server}
}

func (p *testProvider) config() config.IdentityConfig {
	return config.IdentityConfig{
		Issuer:         testIssuer,
		Audience:       testAudience,
		JWKSURL:        p.server.URL,
		JWKSRefresh:    time.Hour,
		RequestTimeout: 5 * time.Second,
	}
}

func (p *testProvider) signToken(
	t *testing.T,
	mutate func(b *jwt.Builder),
) string {
	t.Helper()

	now := time.Now()
	builder := jwt.NewBuilder().
		Issuer(testIssuer).
		Audience([]string{testAudience}).
		Subject("user_1").
		IssuedAt(now).
		Expiration(now.Add(time.Hour))

	if mutate != nil {
		mutate(builder)
	}

	token, err := builder.Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), p.privateKey))
	require.NoError(t, err)

	return string(signed)
}

func TestVerifyAcceptsValidToken(t *testing.T) {
	provider := newTestProvider(t)
	verifier := NewVerifier(provider.config())

	principal, err := verifier.Verify(
		t.Context(),
		provider.signToken(t, nil),
	)
	require.NoError(t, err)
	assert.Equal(t, "user_1", principal.ID)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	provider := newTestProvider(t)
	verifier := NewVerifier(provider.config())

	token := provider.signToken(t, func(b *jwt.Builder) {
		b.Expiration(time.Now().Add(-time.Hour))
	})

	_, err := verifier.Verify(t.Context(), token)
	require.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	provider := newTestProvider(t)
	verifier := NewVerifier(provider.config())

	token := provider.signToken(t, func(b *jwt.Builder) {
		b.Issuer("https://evil.example.com")
	})

	_, err := verifier.Verify(t.Context(), token)
	require.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestVerifyRejectsWrongAudience(t *testing.T) {
	provider := newTestProvider(t)
	verifier := NewVerifier(provider.config())

	token := provider.signToken(t, func(b *jwt.Builder) {
		b.Audience([]string{"someone-else"})
	})

	_, err := verifier.Verify(t.Context(), token)
	require.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	provider := newTestProvider(t)
	verifier := NewVerifier(provider.config())

	token := provider.signToken(t, func(b *jwt.Builder) {
		b.Subject("")
	})

	_, err := verifier.Verify(t.Context(), token)
	require.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	provider := newTestProvider(t)
	verifier := NewVerifier(provider.config())

	_, err := verifier.Verify(t.Context(), "not.a.token")
	require.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestVerifyRejectsTokenFromUnknownKey(t *testing.T) {
	provider := newTestProvider(t)
	stranger := newTestProvider(t)

	verifier := NewVerifier(provider.config())

	_, err := verifier.Verify(t.Context(), stranger.signToken(t, nil))
	require.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestPingReportsJWKSReachability(t *testing.T) {
	provider := newTestProvider(t)

	verifier := NewVerifier(provider.config())
	require.NoError(t, verifier.Ping(t.Context()))

	provider.server.Close()
	assert.Error(t, verifier.Ping(t.Context()))
}

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"expired", errors.New(`"exp" not satisfied`), true},
		{"wrong issuer", errors.New(`"iss" not satisfied: claim "iss" does not have the expected value`), false},
		{"wrong audience", errors.New(`"aud" not satisfied: claim "aud" does not have the expected value`), false},
		{"signature", errors.New("could not verify message using any of the signatures or keys"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTokenExpiredError(tt.err))
		})
	}
}

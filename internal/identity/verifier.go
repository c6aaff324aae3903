// AngelaMos | 2026
// verifier.go

package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carmarket/carmarket-api/internal/config"
	"github.com/carmarket/carmarket-api/internal/core"
)

// Principal is the verified external identity carried by a request.
// The ID is the provider-assigned subject and doubles as the local
// account primary key.
type Principal struct {
	ID string
}

// Verifier validates provider-issued session tokens against the
// provider's JWKS. The key set is fetched lazily and refreshed on an
// interval so key rotation upstream does not require a restart.
type Verifier struct {
	cfg config.IdentityConfig

	mu        sync.RWMutex
	keySet    jwk.Set
	fetchedAt time.Time
}

func NewVerifier(cfg config.IdentityConfig) *Verifier {
	return &Verifier{cfg: cfg}
}

func (v *Verifier) Verify(
	ctx context.Context,
	tokenString string,
) (*Principal, error) {
	keySet, err := v.keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", core.ErrTokenInvalid)
	}

	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKeySet(keySet),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithAudience(v.cfg.Audience),
	)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf(
			"verify token: missing subject: %w",
			core.ErrTokenInvalid,
		)
	}

	return &Principal{ID: subject}, nil
}

// Ping reports whether the provider's JWKS endpoint is reachable. Used
// by the readiness probe.
func (v *Verifier) Ping(ctx context.Context) error {
	fetchCtx, cancel := context.WithTimeout(ctx, v.cfg.RequestTimeout)
	defer cancel()

	if _, err := jwk.Fetch(fetchCtx, v.cfg.JWKSURL); err != nil {
		return fmt.Errorf("fetch jwks from %s: %w", v.cfg.JWKSURL, err)
	}
	return nil
}

func (v *Verifier) keys(ctx context.Context) (jwk.Set, error) {
	v.mu.RLock()
	keySet := v.keySet
	fresh := keySet != nil &&
		time.Since(v.fetchedAt) < v.cfg.JWKSRefresh
	v.mu.RUnlock()

	if fresh {
		return keySet, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.keySet != nil && time.Since(v.fetchedAt) < v.cfg.JWKSRefresh {
		return v.keySet, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, v.cfg.RequestTimeout)
	defer cancel()

	fetched, err := jwk.Fetch(fetchCtx, v.cfg.JWKSURL)
	if err != nil {
		// Stale keys beat no keys when the provider is briefly unreachable.
		if v.keySet != nil {
			return v.keySet, nil
		}
		return nil, fmt.Errorf("fetch jwks from %s: %w", v.cfg.JWKSURL, err)
	}

	v.keySet = fetched
	v.fetchedAt = time.Now()

	return v.keySet, nil
}

func isTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	// jwx reports claim validation failures as `"<claim>" not satisfied`.
	return strings.Contains(err.Error(), `"exp" not satisfied`)
}

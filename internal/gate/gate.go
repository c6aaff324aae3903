// AngelaMos | 2026
// gate.go

package gate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/carmarket/carmarket-api/internal/account"
	"github.com/carmarket/carmarket-api/internal/config"
	"github.com/carmarket/carmarket-api/internal/core"
	"github.com/carmarket/carmarket-api/internal/identity"
	"github.com/carmarket/carmarket-api/internal/middleware"
)

// sessionCookie is the provider's session cookie. Dashboard requests
// are browser navigations, so the token usually arrives here rather
// than in an Authorization header.
const sessionCookie = "__session"

type RoleLookup interface {
	Role(ctx context.Context, principalID string) (string, error)
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*identity.Principal, error)
}

// Gate is the navigational authorization layer over the dashboard
// prefix. It decides between passing a request through and redirecting,
// never between passing and erroring: authorization failures here are
// navigational outcomes, not API ones.
//
// Role assignment is always explicit. A signed-in visitor without a
// role is sent to the role-selection page no matter which dashboard
// path they hit first; nothing in the gate writes a role.
type Gate struct {
	cfg      config.GateConfig
	verifier TokenVerifier
	roles    RoleLookup
	cache    *RoleCache
	logger   *slog.Logger
}

func New(
	cfg config.GateConfig,
	verifier TokenVerifier,
	roles RoleLookup,
	cache *RoleCache,
	logger *slog.Logger,
) *Gate {
	return &Gate{
		cfg:      cfg,
		verifier: verifier,
		roles:    roles,
		cache:    cache,
		logger:   logger,
	}
}

func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.underPrefix(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token := extractSessionToken(r)
		if token == "" {
			http.Redirect(w, r, g.cfg.SignInURL, http.StatusFound)
			return
		}

		principal, err := g.verifier.Verify(r.Context(), token)
		if err != nil {
			http.Redirect(w, r, g.cfg.SignInURL, http.StatusFound)
			return
		}

		role, err := g.lookupRole(r.Context(), principal.ID)
		if err != nil {
			if g.cfg.FailOpen {
				g.logger.Warn("role lookup failed, gate failing open",
					"principal_id", principal.ID,
					"path", r.URL.Path,
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}
			http.Redirect(w, r, g.cfg.SignInURL, http.StatusFound)
			return
		}

		if target := g.redirectTarget(r.URL.Path, role); target != "" {
			http.Redirect(w, r, target, http.StatusFound)
			return
		}

		ctx := context.WithValue(
			r.Context(),
			middleware.PrincipalIDKey,
			principal.ID,
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// redirectTarget returns where the request should bounce to, or ""
// when it may proceed. Rules in order of first match:
//
//  1. no role yet, any dashboard path -> role selection
//  2. bare dashboard root -> own role's area
//  3. buyer in the seller area -> buyer area
//  4. seller in the buyer area -> allowed through; sellers may browse
//     the marketplace view
func (g *Gate) redirectTarget(path, role string) string {
	if role == "" {
		return g.cfg.SelectRolePath
	}

	if g.isBareRoot(path) {
		if role == account.RoleSeller {
			return g.cfg.SellerPath
		}
		return g.cfg.BuyerPath
	}

	if role == account.RoleBuyer && pathWithin(path, g.cfg.SellerPath) {
		return g.cfg.BuyerPath
	}

	return ""
}

func (g *Gate) lookupRole(
	ctx context.Context,
	principalID string,
) (string, error) {
	if g.cache != nil {
		if role, ok, err := g.cache.Get(ctx, principalID); err == nil && ok {
			return role, nil
		}
	}

	role, err := g.roles.Role(ctx, principalID)
	if errors.Is(err, core.ErrNotFound) {
		role, err = "", nil
	}
	if err != nil {
		return "", err
	}

	if g.cache != nil {
		//nolint:errcheck // cache population is best-effort
		_ = g.cache.Set(ctx, principalID, role)
	}

	return role, nil
}

func (g *Gate) underPrefix(path string) bool {
	return pathWithin(path, g.cfg.DashboardPrefix)
}

func (g *Gate) isBareRoot(path string) bool {
	return path == g.cfg.DashboardPrefix ||
		path == g.cfg.DashboardPrefix+"/"
}

func pathWithin(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func extractSessionToken(r *http.Request) string {
	if token := middleware.ExtractToken(r); token != "" {
		return token
	}

	if cookie, err := r.Cookie(sessionCookie); err == nil {
		return cookie.Value
	}

	return ""
}

// AngelaMos | 2026
// service.go

package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/carmarket/carmarket-api/internal/core"
	"github.com/carmarket/carmarket-api/internal/identity"
)

var ErrInvalidRole = errors.New("invalid role")

// RoleAssignedError rejects a second role assignment. It carries the
// stored role so the handler can tell the caller which side of the
// marketplace they are already on. This is an expected user-facing
// rejection, not a server fault.
type RoleAssignedError struct {
	Role string
}

func (e *RoleAssignedError) Error() string {
	return fmt.Sprintf(
		"You are already registered as a %s. Role cannot be changed.",
		e.Role,
	)
}

type ProfileFetcher interface {
	Fetch(ctx context.Context, rawToken string) (*identity.Profile, error)
}

// RoleCache is invalidated whenever a role is written so the dashboard
// gate never serves a stale "unset" after assignment.
type RoleCache interface {
	Invalidate(ctx context.Context, accountID string) error
}

type Service struct {
	repo     Repository
	profiles ProfileFetcher
	cache    RoleCache
}

func NewService(
	repo Repository,
	profiles ProfileFetcher,
	cache RoleCache,
) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		cache:    cache,
	}
}

// Resolve maps a verified principal to its account, creating one with an
// unset role on first sight. The unique constraint on accounts.id makes
// the lazy create idempotent: a concurrent first request that loses the
// insert race falls back to reading the winner's row.
func (s *Service) Resolve(
	ctx context.Context,
	principalID, rawToken string,
) (*Account, error) {
	account, err := s.repo.GetByID(ctx, principalID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	return s.createFromProfile(ctx, principalID, rawToken, "")
}

// AssignRole performs the one-way role transition. Exactly one of two
// concurrent calls on a fresh account succeeds; the other reports the
// winner's role.
func (s *Service) AssignRole(
	ctx context.Context,
	principalID, rawToken, role string,
) (*Account, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf("assign role %q: %w", role, ErrInvalidRole)
	}

	account, err := s.repo.SetRoleIfUnset(ctx, principalID, role)
	if err == nil {
		s.invalidateRole(ctx, principalID)
		return account, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	// No row updated: either the account does not exist yet, or its
	// role is already set.
	existing, getErr := s.repo.GetByID(ctx, principalID)
	if getErr == nil {
		if existing.HasRole() {
			return nil, &RoleAssignedError{Role: existing.Role}
		}
		// Observed an unset role after the CAS missed; a concurrent
		// assignment must have landed in between. Retry once.
		retried, retryErr := s.repo.SetRoleIfUnset(ctx, principalID, role)
		if retryErr != nil {
			if errors.Is(retryErr, core.ErrNotFound) {
				if winner, werr := s.repo.GetByID(ctx, principalID); werr == nil && winner.HasRole() {
					return nil, &RoleAssignedError{Role: winner.Role}
				}
			}
			return nil, retryErr
		}
		s.invalidateRole(ctx, principalID)
		return retried, nil
	}
	if !errors.Is(getErr, core.ErrNotFound) {
		return nil, getErr
	}

	created, err := s.createFromProfile(ctx, principalID, rawToken, role)
	if err != nil {
		return nil, err
	}

	s.invalidateRole(ctx, principalID)
	return created, nil
}

// Role returns the stored role for an account, or core.ErrNotFound when
// the identity has never hit the API. The gate treats both the empty
// role and the missing account as "no role yet".
func (s *Service) Role(
	ctx context.Context,
	principalID string,
) (string, error) {
	return s.repo.GetRole(ctx, principalID)
}

func (s *Service) createFromProfile(
	ctx context.Context,
	principalID, rawToken, role string,
) (*Account, error) {
	profile, err := s.profiles.Fetch(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("resolve new identity %s: %w", principalID, err)
	}

	account := &Account{
		ID:        principalID,
		Email:     profile.Email,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Role:      role,
	}

	err = s.repo.Create(ctx, account)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, core.ErrDuplicateKey) {
		return nil, err
	}

	// Lost the insert race; the other request's row is authoritative.
	existing, getErr := s.repo.GetByID(ctx, principalID)
	if getErr != nil {
		return nil, getErr
	}

	if role != "" && !existing.HasRole() {
		updated, casErr := s.repo.SetRoleIfUnset(ctx, principalID, role)
		if casErr == nil {
			return updated, nil
		}
		if errors.Is(casErr, core.ErrNotFound) {
			// The CAS missed because a concurrent request grabbed the
			// role after our read. Surface the winner's role.
			if winner, werr := s.repo.GetByID(ctx, principalID); werr == nil && winner.HasRole() {
				return nil, &RoleAssignedError{Role: winner.Role}
			}
		}
		return nil, casErr
	}
	if role != "" && existing.Role != role {
		return nil, &RoleAssignedError{Role: existing.Role}
	}

	return existing, nil
}

func (s *Service) invalidateRole(ctx context.Context, principalID string) {
	if s.cache == nil {
		return
	}
	//nolint:errcheck // cache invalidation is best-effort; TTL bounds staleness
	_ = s.cache.Invalidate(ctx, principalID)
}

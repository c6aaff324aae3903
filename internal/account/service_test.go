// AngelaMos | 2026
// service_test.go

package account

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carmarket/carmarket-api/internal/core"
	"github.com/carmarket/carmarket-api/internal/identity"
)

type fakeRepo struct {
	mu       sync.Mutex
	accounts map[string]*Account
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{accounts: make(map[string]*Account)}
}

func (r *fakeRepo) Create(_ context.Context, account *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.ID]; ok {
		return fmt.Errorf("create account: %w", core.ErrDuplicateKey)
	}

	stored := *account
	r.accounts[account.ID] = &stored
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.accounts[id]
	if !ok {
		return nil, fmt.Errorf("get account: %w", core.ErrNotFound)
	}

	copied := *stored
	return &copied, nil
}

func (r *fakeRepo) GetRole(_ context.Context, id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.accounts[id]
	if !ok {
		return "", fmt.Errorf("get role: %w", core.ErrNotFound)
	}

	return stored.Role, nil
}

func (r *fakeRepo) SetRoleIfUnset(
	_ context.Context,
	id, role string,
) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.accounts[id]
	if !ok || stored.Role != "" {
		return nil, fmt.Errorf("set role: %w", core.ErrNotFound)
	}

	stored.Role = role
	copied := *stored
	return &copied, nil
}

type fakeProfiles struct {
	profile *identity.Profile
	err     error
	calls   int
}

func (f *fakeProfiles) Fetch(
	_ context.Context,
	_ string,
) (*identity.Profile, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

type recordingCache struct {
	invalidated []string
}

func (c *recordingCache) Invalidate(_ context.Context, accountID string) error {
	c.invalidated = append(c.invalidated, accountID)
	return nil
}

func newTestService(repo Repository, profiles ProfileFetcher) *Service {
	return NewService(repo, profiles, &recordingCache{})
}

func TestResolveCreatesAccountOnFirstSight(t *testing.T) {
	repo := newFakeRepo()
	profiles := &fakeProfiles{
		profile: &identity.Profile{
			Email:     "jane@example.com",
			FirstName: "Jane",
			LastName:  "Doe",
		},
	}
	svc := newTestService(repo, profiles)

	acct, err := svc.Resolve(context.Background(), "user_1", "token")
	require.NoError(t, err)

	assert.Equal(t, "user_1", acct.ID)
	assert.Equal(t, "jane@example.com", acct.Email)
	assert.Equal(t, "Jane", acct.FirstName)
	assert.Equal(t, "", acct.Role)
	assert.False(t, acct.HasRole())
}

func TestResolveIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	profiles := &fakeProfiles{profile: &identity.Profile{Email: "a@b.c"}}
	svc := newTestService(repo, profiles)

	first, err := svc.Resolve(context.Background(), "user_1", "token")
	require.NoError(t, err)

	second, err := svc.Resolve(context.Background(), "user_1", "token")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, profiles.calls, "profile fetched only for the create")
}

func TestResolveSurvivesLostInsertRace(t *testing.T) {
	repo := newFakeRepo()
	profiles := &fakeProfiles{profile: &identity.Profile{Email: "a@b.c"}}

	// Another request's insert lands between our read and our create.
	require.NoError(t, repo.Create(context.Background(), &Account{
		ID:    "user_1",
		Email: "winner@example.com",
	}))

	svc := newTestService(&raceRepo{fakeRepo: repo}, profiles)

	acct, err := svc.Resolve(context.Background(), "user_1", "token")
	require.NoError(t, err)
	assert.Equal(t, "winner@example.com", acct.Email)
}

// raceRepo reports NotFound on the first read so the service takes the
// create path and collides with the pre-existing row.
type raceRepo struct {
	*fakeRepo
	reads int
}

func (r *raceRepo) GetByID(ctx context.Context, id string) (*Account, error) {
	r.reads++
	if r.reads == 1 {
		return nil, fmt.Errorf("get account: %w", core.ErrNotFound)
	}
	return r.fakeRepo.GetByID(ctx, id)
}

func TestResolvePropagatesUpstreamFailure(t *testing.T) {
	repo := newFakeRepo()
	profiles := &fakeProfiles{
		err: fmt.Errorf("fetch profile: %w", core.ErrUpstream),
	}
	svc := newTestService(repo, profiles)

	_, err := svc.Resolve(context.Background(), "user_1", "token")
	require.ErrorIs(t, err, core.ErrUpstream)
}

func TestAssignRoleSetsRoleOnce(t *testing.T) {
	repo := newFakeRepo()
	profiles := &fakeProfiles{profile: &identity.Profile{Email: "a@b.c"}}
	cache := &recordingCache{}
	svc := NewService(repo, profiles, cache)

	_, err := svc.Resolve(context.Background(), "user_1", "token")
	require.NoError(t, err)

	acct, err := svc.AssignRole(context.Background(), "user_1", "token", RoleSeller)
	require.NoError(t, err)
	assert.Equal(t, RoleSeller, acct.Role)
	assert.Contains(t, cache.invalidated, "user_1")
}

func TestAssignRoleRejectsSecondAssignment(t *testing.T) {
	repo := newFakeRepo()
	profiles := &fakeProfiles{profile: &identity.Profile{Email: "a@b.c"}}
	svc := newTestService(repo, profiles)

	_, err := svc.AssignRole(context.Background(), "user_1", "token", RoleSeller)
	require.NoError(t, err)

	_, err = svc.AssignRole(context.Background(), "user_1", "token", RoleBuyer)
	require.Error(t, err)

	var roleErr *RoleAssignedError
	require.ErrorAs(t, err, &roleErr)
	assert.Equal(t, RoleSeller, roleErr.Role)
	assert.Equal(
		t,
		"You are already registered as a seller. Role cannot be changed.",
		roleErr.Error(),
	)
}

func TestAssignRoleRejectsSameRoleTwice(t *testing.T) {
	repo := newFakeRepo()
	profiles := &fakeProfiles{profile: &identity.Profile{Email: "a@b.c"}}
	svc := newTestService(repo, profiles)

	_, err := svc.AssignRole(context.Background(), "user_1", "token", RoleBuyer)
	require.NoError(t, err)

	// Re-assigning the identical role is still a rejection: the
	// transition out of unset happens exactly once.
	_, err = svc.AssignRole(context.Background(), "user_1", "token", RoleBuyer)
	var roleErr *RoleAssignedError
	require.ErrorAs(t, err, &roleErr)
	assert.Equal(t, RoleBuyer, roleErr.Role)
}

func TestAssignRoleRejectsUnknownRole(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeProfiles{})

	_, err := svc.AssignRole(context.Background(), "user_1", "token", "admin")
	require.ErrorIs(t, err, ErrInvalidRole)
}

func TestAssignRoleCreatesAccountWhenMissing(t *testing.T) {
	repo := newFakeRepo()
	profiles := &fakeProfiles{
		profile: &identity.Profile{Email: "new@example.com"},
	}
	svc := newTestService(repo, profiles)

	// No prior Resolve call: assignment on a never-seen identity
	// creates the account with the role already set.
	acct, err := svc.AssignRole(context.Background(), "user_9", "token", RoleBuyer)
	require.NoError(t, err)
	assert.Equal(t, RoleBuyer, acct.Role)
	assert.Equal(t, "new@example.com", acct.Email)
}

func TestRoleReportsNotFoundForUnknownIdentity(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeProfiles{})

	_, err := svc.Role(context.Background(), "ghost")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestConcurrentAssignmentsHaveOneWinner(t *testing.T) {
	repo := newFakeRepo()
	profiles := &fakeProfiles{profile: &identity.Profile{Email: "a@b.c"}}
	svc := newTestService(repo, profiles)

	_, err := svc.Resolve(context.Background(), "user_1", "token")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 2)
	roles := []string{RoleBuyer, RoleSeller}

	for i := range roles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.AssignRole(
				context.Background(),
				"user_1",
				"token",
				roles[i],
			)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			var roleErr *RoleAssignedError
			assert.ErrorAs(t, err, &roleErr)
		}
	}
	assert.Equal(t, 1, winners)

	role, err := svc.Role(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Contains(t, roles, role)
}

// grabbedRoleRepo simulates a role grab landing between the
// duplicate-key read and the follow-up role update: the account exists
// with an unset role when read, but the role is taken by the time the
// update runs.
type grabbedRoleRepo struct {
	*fakeRepo
	casCalls int
}

func (r *grabbedRoleRepo) SetRoleIfUnset(
	ctx context.Context,
	id, role string,
) (*Account, error) {
	r.casCalls++
	if r.casCalls == 1 {
		// Account does not exist yet.
		return nil, fmt.Errorf("set role: %w", core.ErrNotFound)
	}
	// A concurrent request fills the role right before ours runs.
	_, _ = r.fakeRepo.SetRoleIfUnset(ctx, id, RoleBuyer)
	return nil, fmt.Errorf("set role: %w", core.ErrNotFound)
}

func (r *grabbedRoleRepo) Create(ctx context.Context, account *Account) error {
	// The concurrent request's insert already landed, without a role.
	_ = r.fakeRepo.Create(ctx, &Account{
		ID:    account.ID,
		Email: "winner@example.com",
	})
	return fmt.Errorf("insert account: %w", core.ErrDuplicateKey)
}

func TestAssignRoleReportsWinnerAfterInsertRace(t *testing.T) {
	repo := &grabbedRoleRepo{fakeRepo: newFakeRepo()}
	profiles := &fakeProfiles{profile: &identity.Profile{Email: "a@b.c"}}
	svc := newTestService(repo, profiles)

	_, err := svc.AssignRole(context.Background(), "user_1", "token", RoleSeller)
	require.Error(t, err)
	require.NotErrorIs(t, err, core.ErrNotFound)

	var roleErr *RoleAssignedError
	require.ErrorAs(t, err, &roleErr)
	assert.Equal(t, RoleBuyer, roleErr.Role)
}

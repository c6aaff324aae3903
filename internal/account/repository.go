// AngelaMos | 2026
// repository.go

package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carmarket/carmarket-api/internal/core"
)

type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	GetRole(ctx context.Context, id string) (string, error)
	SetRoleIfUnset(ctx context.Context, id, role string) (*Account, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, account *Account) error {
	query := `
		INSERT INTO accounts (id, email, first_name, last_name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, account, query,
		account.ID,
		account.Email,
		account.FirstName,
		account.LastName,
		account.Role,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create account: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create account: %w", err)
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	id string,
) (*Account, error) {
	query := `
		SELECT id, email, first_name, last_name, role, created_at, updated_at
		FROM accounts
		WHERE id = $1`

	var account Account
	err := r.db.GetContext(ctx, &account, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get account: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	return &account, nil
}

func (r *repository) GetRole(ctx context.Context, id string) (string, error) {
	query := `SELECT role FROM accounts WHERE id = $1`

	var role string
	err := r.db.GetContext(ctx, &role, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get role: %w", core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get role: %w", err)
	}

	return role, nil
}

// SetRoleIfUnset is the compare-and-set behind the one-way role
// transition. The WHERE clause guarantees that of two concurrent
// assignments exactly one sees an affected row; the loser gets
// sql.ErrNoRows and the caller decides whether the account is missing
// or the role was already taken.
func (r *repository) SetRoleIfUnset(
	ctx context.Context,
	id, role string,
) (*Account, error) {
	query := `
		UPDATE accounts
		SET role = $2, updated_at = NOW()
		WHERE id = $1 AND role = ''
		RETURNING id, email, first_name, last_name, role,
		          created_at, updated_at`

	var account Account
	err := r.db.GetContext(ctx, &account, query, id, role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("set role: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}

	return &account, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

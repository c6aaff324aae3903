// AngelaMos | 2026
// store.go

package ops

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carmarket/carmarket-api/internal/core"
)

type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Snapshot reads both count sets inside one transaction so the account
// and listing numbers describe the same moment.
func (s *Store) Snapshot(
	ctx context.Context,
) (*AccountCounts, *ListingCounts, error) {
	accountQuery := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE role = 'buyer') AS buyers,
			COUNT(*) FILTER (WHERE role = 'seller') AS sellers,
			COUNT(*) FILTER (WHERE role = '') AS unset
		FROM accounts`

	listingQuery := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'active') AS active,
			COUNT(*) FILTER (WHERE status = 'reserved') AS reserved,
			COUNT(*) FILTER (WHERE status = 'sold') AS sold,
			COUNT(*) FILTER (WHERE listing_kind = 'sale') AS for_sale,
			COUNT(*) FILTER (WHERE listing_kind = 'rent') AS for_rent
		FROM listings`

	var accounts AccountCounts
	var listings ListingCounts

	err := core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &accounts, accountQuery); err != nil {
			return fmt.Errorf("count accounts: %w", err)
		}
		if err := tx.GetContext(ctx, &listings, listingQuery); err != nil {
			return fmt.Errorf("count listings: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &accounts, &listings, nil
}

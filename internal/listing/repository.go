// AngelaMos | 2026
// repository.go

package listing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carmarket/carmarket-api/internal/core"
)

type Repository interface {
	Create(ctx context.Context, l *Listing) error
	GetByID(ctx context.Context, id string) (*Listing, error)
	List(ctx context.Context, ownerID string) ([]Listing, error)
	UpdateOwned(ctx context.Context, l *Listing) error
	DeleteOwned(ctx context.Context, id, ownerID string) error
	SetStatusOwned(
		ctx context.Context,
		id, ownerID, status string,
	) (*Listing, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const listingColumns = `
	id, owner_id, title, description, vehicle_type, listing_kind,
	price, rental_price, status, make, model, year, mileage,
	location, whatsapp_number, image_url, specs, created_at, updated_at`

func (r *repository) Create(ctx context.Context, l *Listing) error {
	query := `
		INSERT INTO listings (
			id, owner_id, title, description, vehicle_type, listing_kind,
			price, rental_price, status, make, model, year, mileage,
			location, whatsapp_number, image_url, specs
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, l, query,
		l.ID,
		l.OwnerID,
		l.Title,
		l.Description,
		l.VehicleType,
		l.ListingKind,
		l.Price,
		l.RentalPrice,
		l.Status,
		l.Make,
		l.Model,
		l.Year,
		l.Mileage,
		l.Location,
		l.WhatsappNumber,
		l.ImageURL,
		l.Specs,
	)
	if err != nil {
		return fmt.Errorf("create listing: %w", err)
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	id string,
) (*Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`

	var l Listing
	err := r.db.GetContext(ctx, &l, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get listing: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}

	return &l, nil
}

func (r *repository) List(
	ctx context.Context,
	ownerID string,
) ([]Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings`
	var args []any

	if ownerID != "" {
		query += ` WHERE owner_id = $1`
		args = append(args, ownerID)
	}

	query += ` ORDER BY created_at DESC`

	listings := []Listing{}
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}

	return listings, nil
}

// UpdateOwned replaces the mutable fields of a listing, but only when
// the row belongs to l.OwnerID. A miss never reveals whether the id
// exists under someone else's account.
func (r *repository) UpdateOwned(ctx context.Context, l *Listing) error {
	query := `
		UPDATE listings SET
			title           = $3,
			description     = $4,
			vehicle_type    = $5,
			listing_kind    = $6,
			price           = $7,
			rental_price    = $8,
			status          = $9,
			make            = $10,
			model           = $11,
			year            = $12,
			mileage         = $13,
			location        = $14,
			whatsapp_number = $15,
			image_url       = $16,
			specs           = $17,
			updated_at      = NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, l, query,
		l.ID,
		l.OwnerID,
		l.Title,
		l.Description,
		l.VehicleType,
		l.ListingKind,
		l.Price,
		l.RentalPrice,
		l.Status,
		l.Make,
		l.Model,
		l.Year,
		l.Mileage,
		l.Location,
		l.WhatsappNumber,
		l.ImageURL,
		l.Specs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update listing: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}

	return nil
}

func (r *repository) DeleteOwned(
	ctx context.Context,
	id, ownerID string,
) error {
	query := `DELETE FROM listings WHERE id = $1 AND owner_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete listing: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) SetStatusOwned(
	ctx context.Context,
	id, ownerID, status string,
) (*Listing, error) {
	query := `
		UPDATE listings
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + listingColumns

	var l Listing
	err := r.db.GetContext(ctx, &l, query, id, ownerID, status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("set listing status: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("set listing status: %w", err)
	}

	return &l, nil
}

// AngelaMos | 2026
// service.go

package listing

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/carmarket/carmarket-api/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(
	ctx context.Context,
	ownerID string,
) ([]Listing, error) {
	return s.repo.List(ctx, ownerID)
}

func (s *Service) Create(
	ctx context.Context,
	ownerID string,
	req CreateListingRequest,
) (*Listing, error) {
	l := fromFields(req.ListingFields)
	l.ID = uuid.New().String()
	l.OwnerID = ownerID

	if err := validateKindAndPrice(l); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}

	return l, nil
}

func (s *Service) Update(
	ctx context.Context,
	ownerID string,
	req UpdateListingRequest,
) (*Listing, error) {
	l := fromFields(req.ListingFields)
	l.ID = req.ID
	l.OwnerID = ownerID

	if err := validateKindAndPrice(l); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateOwned(ctx, l); err != nil {
		return nil, err
	}

	return l, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	return s.repo.DeleteOwned(ctx, id, ownerID)
}

func (s *Service) SetStatus(
	ctx context.Context,
	ownerID, id, status string,
) (*Listing, error) {
	if !ValidStatus(status) {
		return nil, core.ValidationError(
			fmt.Sprintf("status must be one of: active reserved sold, got %q", status),
		)
	}

	return s.repo.SetStatusOwned(ctx, id, ownerID, status)
}

// Contact builds the WhatsApp deep link a buyer follows to message the
// seller, with a prefilled text naming the car. Number normalization
// lives here so every client gets the same link.
func (s *Service) Contact(
	ctx context.Context,
	listingID string,
) (*ContactResponse, error) {
	l, err := s.repo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	digits := normalizeNumber(l.WhatsappNumber)
	if digits == "" {
		return nil, fmt.Errorf(
			"contact for listing %s: no usable number: %w",
			listingID,
			core.ErrNotFound,
		)
	}

	message := fmt.Sprintf(
		"Hi, I'm interested in your %d %s %s listing.",
		l.Year,
		l.Make,
		l.Model,
	)

	return &ContactResponse{
		ListingID: l.ID,
		Link: fmt.Sprintf(
			"https://wa.me/%s?text=%s",
			digits,
			url.QueryEscape(message),
		),
	}, nil
}

func fromFields(f ListingFields) *Listing {
	kind := f.ListingKind
	if kind == "" {
		kind = KindSale
	}

	status := f.Status
	if status == "" {
		status = StatusActive
	}

	mileage := 0
	if f.Mileage != nil {
		mileage = *f.Mileage
	}

	return &Listing{
		Title:          f.Title,
		Description:    f.Description,
		VehicleType:    f.VehicleType,
		ListingKind:    kind,
		Price:          f.Price,
		RentalPrice:    f.RentalPrice,
		Status:         status,
		Make:           f.Make,
		Model:          f.Model,
		Year:           f.Year,
		Mileage:        mileage,
		Location:       f.Location,
		WhatsappNumber: f.WhatsappNumber,
		ImageURL:       f.ImageURL,
		Specs:          f.Specs,
	}
}

// validateKindAndPrice enforces the kind-conditional price rule: sale
// listings need a price, rental listings need a rental price. The
// complementary field is accepted but never required.
func validateKindAndPrice(l *Listing) error {
	switch l.ListingKind {
	case KindSale:
		if strings.TrimSpace(l.Price) == "" {
			return core.ValidationError("price is required for sale listings")
		}
	case KindRent:
		if strings.TrimSpace(l.RentalPrice) == "" {
			return core.ValidationError(
				"rentalPrice is required for rent listings",
			)
		}
	default:
		return core.ValidationError(
			fmt.Sprintf("listingKind must be one of: sale rent, got %q", l.ListingKind),
		)
	}

	return nil
}

func normalizeNumber(number string) string {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AngelaMos | 2026
// dto.go

package listing

import (
	"time"
)

// ListingFields carries every client-settable field of a listing. The
// create and update payloads are identical apart from update requiring
// the id, so both embed this struct. Price requirements depend on the
// listing kind and are checked in the service, not here.
type ListingFields struct {
	Title          string            `json:"title"          validate:"required,max=60"`
	Description    string            `json:"description"    validate:"max=2000"`
	VehicleType    string            `json:"vehicleType"    validate:"omitempty,oneof=Sports SUV Electric Sedan Truck"`
	ListingKind    string            `json:"listingKind"    validate:"omitempty,oneof=sale rent"`
	Price          string            `json:"price"          validate:"max=40"`
	RentalPrice    string            `json:"rentalPrice"    validate:"max=40"`
	Status         string            `json:"status"         validate:"omitempty,oneof=active reserved sold"`
	Make           string            `json:"make"           validate:"required,max=60"`
	Model          string            `json:"model"          validate:"required,max=60"`
	Year           int               `json:"year"           validate:"required,min=1900,max=2100"`
	Mileage        *int              `json:"mileage"        validate:"required,min=0"`
	Location       string            `json:"location"       validate:"required,max=120"`
	WhatsappNumber string            `json:"whatsappNumber" validate:"required,max=30"`
	ImageURL       string            `json:"imageUrl"       validate:"required,max=2048"`
	Specs          map[string]string `json:"specs"          validate:"omitempty,max=20"`
}

type CreateListingRequest struct {
	ListingFields
}

type UpdateListingRequest struct {
	ID string `json:"id" validate:"required"`
	ListingFields
}

type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active reserved sold"`
}

type ListingResponse struct {
	ID             string            `json:"id"`
	OwnerID        string            `json:"ownerId"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	VehicleType    string            `json:"vehicleType"`
	ListingKind    string            `json:"listingKind"`
	Price          string            `json:"price,omitempty"`
	RentalPrice    string            `json:"rentalPrice,omitempty"`
	Status         string            `json:"status"`
	Make           string            `json:"make"`
	Model          string            `json:"model"`
	Year           int               `json:"year"`
	Mileage        int               `json:"mileage"`
	Location       string            `json:"location"`
	WhatsappNumber string            `json:"whatsappNumber"`
	ImageURL       string            `json:"imageUrl"`
	Specs          map[string]string `json:"specs,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

type ContactResponse struct {
	ListingID string `json:"listingId"`
	Link      string `json:"link"`
}

func ToListingResponse(l *Listing) ListingResponse {
	return ListingResponse{
		ID:             l.ID,
		OwnerID:        l.OwnerID,
		Title:          l.Title,
		Description:    l.Description,
		VehicleType:    l.VehicleType,
		ListingKind:    l.ListingKind,
		Price:          l.Price,
		RentalPrice:    l.RentalPrice,
		Status:         l.Status,
		Make:           l.Make,
		Model:          l.Model,
		Year:           l.Year,
		Mileage:        l.Mileage,
		Location:       l.Location,
		WhatsappNumber: l.WhatsappNumber,
		ImageURL:       l.ImageURL,
		Specs:          l.Specs,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}

func ToListingResponseList(listings []Listing) []ListingResponse {
	responses := make([]ListingResponse, 0, len(listings))
	for i := range listings {
		responses = append(responses, ToListingResponse(&listings[i]))
	}
	return responses
}

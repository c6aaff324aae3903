// AngelaMos | 2026
// entity.go

package listing

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Listing is a single car advertisement owned by exactly one account.
// Prices are strings to preserve display formatting ("$145,000",
// "$500/day"); which one is required depends on the listing kind.
type Listing struct {
	ID             string    `db:"id"`
	OwnerID        string    `db:"owner_id"`
	Title          string    `db:"title"`
	Description    string    `db:"description"`
	VehicleType    string    `db:"vehicle_type"`
	ListingKind    string    `db:"listing_kind"`
	Price          string    `db:"price"`
	RentalPrice    string    `db:"rental_price"`
	Status         string    `db:"status"`
	Make           string    `db:"make"`
	Model          string    `db:"model"`
	Year           int       `db:"year"`
	Mileage        int       `db:"mileage"`
	Location       string    `db:"location"`
	WhatsappNumber string    `db:"whatsapp_number"`
	ImageURL       string    `db:"image_url"`
	Specs          Specs     `db:"specs"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

const (
	KindSale = "sale"
	KindRent = "rent"
)

const (
	StatusActive   = "active"
	StatusReserved = "reserved"
	StatusSold     = "sold"
)

// ValidStatus accepts any member of the status enum. There is no
// transition graph: the owner may move a listing between any two
// statuses, including back out of "sold".
func ValidStatus(status string) bool {
	return status == StatusActive ||
		status == StatusReserved ||
		status == StatusSold
}

// Specs holds free-form performance attributes (engine, transmission,
// top speed, ...) persisted as a JSONB column.
type Specs map[string]string

func (s Specs) Value() (driver.Value, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s)
}

func (s *Specs) Scan(src any) error {
	if src == nil {
		*s = nil
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan specs: unsupported type %T", src)
	}

	return json.Unmarshal(data, s)
}

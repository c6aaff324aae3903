// AngelaMos | 2026
// entity.go

package account

import (
	"time"
)

// Account is the local record for an authenticated external identity.
// ID is the provider-assigned subject. Role is empty until the account
// picks a side of the marketplace, and is never changed afterwards.
type Account struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

func (a *Account) HasRole() bool {
	return a.Role != ""
}

func ValidRole(role string) bool {
	return role == RoleBuyer || role == RoleSeller
}

// AngelaMos | 2026
// dto.go

package account

import (
	"time"
)

type AssignRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=buyer seller"`
}

type AccountResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      *string   `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func ToAccountResponse(a *Account) AccountResponse {
	resp := AccountResponse{
		ID:        a.ID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}

	// role is null until chosen, mirroring what the dashboard expects.
	if a.HasRole() {
		role := a.Role
		resp.Role = &role
	}

	return resp
}

package members

import (
	"time"

	"github.com/google/uuid"
)

// Member is a gym member. Identity fields are set once at onboarding
// and only change through an explicit update.
type Member struct {
	ID        int64     `json:"id"`
	PublicID  uuid.UUID `json:"public_id"`
	BranchID  int64     `json:"branch_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListFilters narrows member listings. Every field is optional.
type ListFilters struct {
	BranchID *int64
	Search   string
	Page     int
	PerPage  int
}

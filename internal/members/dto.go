package members

// MemberForm carries member input for create and update calls.
type MemberForm struct {
	BranchID  int64  `json:"branch_id" validate:"required,gt=0"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,min=7,max=20"`
	Address   string `json:"address"`
	City      string `json:"city"`
}

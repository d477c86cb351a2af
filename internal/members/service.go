package members

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fitcore/fitcore/internal/shared"
)

// Service handles member business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns members matching the filters plus the total count.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Member, int, error) {
	return s.repo.List(ctx, filters)
}

// Get loads a single member.
func (s *Service) Get(ctx context.Context, id int64) (Member, error) {
	if id <= 0 {
		return Member{}, fmt.Errorf("%w: invalid member ID", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// Create onboards a new member.
func (s *Service) Create(ctx context.Context, form MemberForm, createdBy int64) (Member, error) {
	now := time.Now()
	member := Member{
		PublicID:  uuid.New(),
		BranchID:  form.BranchID,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Phone:     form.Phone,
		Address:   form.Address,
		City:      form.City,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.repo.Create(ctx, member)
}

// Update replaces editable member fields.
func (s *Service) Update(ctx context.Context, id int64, form MemberForm) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid member ID", shared.ErrValidation)
	}
	return s.repo.Update(ctx, id, Member{
		BranchID:  form.BranchID,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Phone:     form.Phone,
		Address:   form.Address,
		City:      form.City,
	})
}

// Delete removes a member.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid member ID", shared.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}

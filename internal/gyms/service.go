package gyms

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fitcore/fitcore/internal/shared"
)

// Service handles gym business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns gyms matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Gym, error) {
	return s.repo.List(ctx, filters)
}

// Get loads a single gym.
func (s *Service) Get(ctx context.Context, id int64) (Gym, error) {
	if id <= 0 {
		return Gym{}, fmt.Errorf("%w: invalid gym ID", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// Create registers a new gym.
func (s *Service) Create(ctx context.Context, gym Gym) (Gym, error) {
	if strings.TrimSpace(gym.Name) == "" {
		return Gym{}, fmt.Errorf("%w: gym name is required", shared.ErrValidation)
	}
	gym.CreatedAt = time.Now()
	return s.repo.Create(ctx, gym)
}

// Update replaces editable gym fields.
func (s *Service) Update(ctx context.Context, id int64, gym Gym) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid gym ID", shared.ErrValidation)
	}
	if strings.TrimSpace(gym.Name) == "" {
		return fmt.Errorf("%w: gym name is required", shared.ErrValidation)
	}
	return s.repo.Update(ctx, id, gym)
}

// Delete removes a gym. A gym that still owns branches cannot be
// deleted.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid gym ID", shared.ErrValidation)
	}
	count, err := s.repo.BranchCount(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: gym still has %d branches", shared.ErrValidation, count)
	}
	return s.repo.Delete(ctx, id)
}

// Stats returns cross-gym aggregate counts.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.repo.Stats(ctx)
}

// Analytics loads the per-gym aggregates in parallel.
func (s *Service) Analytics(ctx context.Context, gymID int64) (Analytics, error) {
	if _, err := s.Get(ctx, gymID); err != nil {
		return Analytics{}, err
	}

	out := Analytics{GymID: gymID}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.BranchCount, err = s.repo.BranchCount(ctx, gymID)
		return err
	})
	g.Go(func() error {
		var err error
		out.MemberCount, err = s.repo.MemberCount(ctx, gymID)
		return err
	})
	g.Go(func() error {
		var err error
		out.TrainerCount, err = s.repo.TrainerCount(ctx, gymID)
		return err
	})
	g.Go(func() error {
		var err error
		out.ActiveMemberships, err = s.repo.ActiveMembershipCount(ctx, gymID)
		return err
	})
	g.Go(func() error {
		var err error
		out.TotalRevenue, err = s.repo.Revenue(ctx, gymID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Analytics{}, err
	}
	return out, nil
}

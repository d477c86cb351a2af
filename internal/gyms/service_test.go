package gyms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fitcore/fitcore/internal/shared"
)

type memoryGymRepo struct {
	gyms        map[int64]Gym
	branchCount map[int64]int
	nextID      int64
}

func newMemoryGymRepo() *memoryGymRepo {
	return &memoryGymRepo{gyms: make(map[int64]Gym), branchCount: make(map[int64]int)}
}

func (r *memoryGymRepo) List(ctx context.Context, filters ListFilters) ([]Gym, error) {
	var out []Gym
	for _, g := range r.gyms {
		out = append(out, g)
	}
	return out, nil
}

func (r *memoryGymRepo) Get(ctx context.Context, id int64) (Gym, error) {
	g, ok := r.gyms[id]
	if !ok {
		return Gym{}, shared.ErrNotFound
	}
	return g, nil
}

func (r *memoryGymRepo) Create(ctx context.Context, gym Gym) (Gym, error) {
	r.nextID++
	gym.ID = r.nextID
	r.gyms[gym.ID] = gym
	return gym, nil
}

func (r *memoryGymRepo) Update(ctx context.Context, id int64, gym Gym) error {
	if _, ok := r.gyms[id]; !ok {
		return shared.ErrNotFound
	}
	gym.ID = id
	r.gyms[id] = gym
	return nil
}

func (r *memoryGymRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.gyms[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.gyms, id)
	return nil
}

func (r *memoryGymRepo) BranchCount(ctx context.Context, gymID int64) (int, error) {
	return r.branchCount[gymID], nil
}

func (r *memoryGymRepo) Stats(ctx context.Context) (Stats, error) {
	return Stats{TotalGyms: len(r.gyms)}, nil
}

func (r *memoryGymRepo) MemberCount(ctx context.Context, gymID int64) (int, error) { return 12, nil }

func (r *memoryGymRepo) TrainerCount(ctx context.Context, gymID int64) (int, error) { return 3, nil }

func (r *memoryGymRepo) ActiveMembershipCount(ctx context.Context, gymID int64) (int, error) {
	return 10, nil
}

func (r *memoryGymRepo) Revenue(ctx context.Context, gymID int64) (float64, error) {
	return 42480, nil
}

func TestCreateGymRequiresName(t *testing.T) {
	svc := NewService(newMemoryGymRepo())
	_, err := svc.Create(context.Background(), Gym{Name: "  "})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeleteGymWithBranchesRejected(t *testing.T) {
	repo := newMemoryGymRepo()
	svc := NewService(repo)

	gym, err := svc.Create(context.Background(), Gym{Name: "Iron Works"})
	require.NoError(t, err)

	repo.branchCount[gym.ID] = 2
	err = svc.Delete(context.Background(), gym.ID)
	require.ErrorIs(t, err, shared.ErrValidation)

	repo.branchCount[gym.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), gym.ID))
	_, err = svc.Get(context.Background(), gym.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGymAnalyticsFanOut(t *testing.T) {
	repo := newMemoryGymRepo()
	svc := NewService(repo)

	gym, err := svc.Create(context.Background(), Gym{Name: "Iron Works"})
	require.NoError(t, err)
	repo.branchCount[gym.ID] = 2

	analytics, err := svc.Analytics(context.Background(), gym.ID)
	require.NoError(t, err)
	require.Equal(t, 2, analytics.BranchCount)
	require.Equal(t, 12, analytics.MemberCount)
	require.Equal(t, 3, analytics.TrainerCount)
	require.Equal(t, 10, analytics.ActiveMemberships)
	require.Equal(t, 42480.0, analytics.TotalRevenue)
}

func TestGymAnalyticsUnknownGym(t *testing.T) {
	svc := NewService(newMemoryGymRepo())
	_, err := svc.Analytics(context.Background(), 99)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

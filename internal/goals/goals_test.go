package goals

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fitcore/fitcore/internal/shared"
)

type memoryGoalRepo struct {
	goals  map[int64]Goal
	nextID int64
}

func newMemoryGoalRepo() *memoryGoalRepo {
	return &memoryGoalRepo{goals: make(map[int64]Goal)}
}

func (r *memoryGoalRepo) List(ctx context.Context, filters ListFilters) ([]Goal, error) {
	var out []Goal
	for _, g := range r.goals {
		if filters.Status != "" && g.Status != filters.Status {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (r *memoryGoalRepo) Get(ctx context.Context, id int64) (Goal, error) {
	g, ok := r.goals[id]
	if !ok {
		return Goal{}, shared.ErrNotFound
	}
	return g, nil
}

func (r *memoryGoalRepo) Create(ctx context.Context, goal Goal) (Goal, error) {
	r.nextID++
	goal.ID = r.nextID
	r.goals[goal.ID] = goal
	return goal, nil
}

func (r *memoryGoalRepo) Update(ctx context.Context, id int64, goal Goal) error {
	if _, ok := r.goals[id]; !ok {
		return shared.ErrNotFound
	}
	goal.ID = id
	goal.Status = r.goals[id].Status
	r.goals[id] = goal
	return nil
}

func (r *memoryGoalRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	g, ok := r.goals[id]
	if !ok {
		return shared.ErrNotFound
	}
	g.Status = status
	r.goals[id] = g
	return nil
}

func (r *memoryGoalRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.goals[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.goals, id)
	return nil
}

func TestCreateGoalStartsPending(t *testing.T) {
	svc := NewService(newMemoryGoalRepo())
	goal, err := svc.Create(context.Background(), GoalForm{MemberID: 1, TrainerID: 2, Title: "Lose 5kg"})
	require.NoError(t, err)
	require.Equal(t, StatusPending, goal.Status)
}

func TestSetStatusOnlyFromPending(t *testing.T) {
	repo := newMemoryGoalRepo()
	svc := NewService(repo)

	goal, err := svc.Create(context.Background(), GoalForm{MemberID: 1, TrainerID: 2, Title: "5k run"})
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(context.Background(), goal.ID, StatusAchieved))
	err = svc.SetStatus(context.Background(), goal.ID, StatusAbandoned)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	svc := NewService(newMemoryGoalRepo())
	err := svc.SetStatus(context.Background(), 1, "paused")
	require.ErrorIs(t, err, shared.ErrValidation)
}

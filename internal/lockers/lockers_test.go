package lockers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fitcore/fitcore/internal/shared"
)

type memoryLockerRepo struct {
	lockers map[int64]Locker
	nextID  int64
}

func newMemoryLockerRepo() *memoryLockerRepo {
	return &memoryLockerRepo{lockers: make(map[int64]Locker)}
}

func (r *memoryLockerRepo) List(ctx context.Context, filters ListFilters) ([]Locker, error) {
	var out []Locker
	for _, l := range r.lockers {
		if filters.Status != "" && l.Status != filters.Status {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (r *memoryLockerRepo) Get(ctx context.Context, id int64) (Locker, error) {
	l, ok := r.lockers[id]
	if !ok {
		return Locker{}, shared.ErrNotFound
	}
	return l, nil
}

func (r *memoryLockerRepo) Create(ctx context.Context, locker Locker) (Locker, error) {
	for _, l := range r.lockers {
		if l.BranchID == locker.BranchID && l.Number == locker.Number {
			return Locker{}, shared.ErrDuplicate
		}
	}
	r.nextID++
	locker.ID = r.nextID
	r.lockers[locker.ID] = locker
	return locker, nil
}

func (r *memoryLockerRepo) Update(ctx context.Context, id int64, locker Locker) error {
	existing, ok := r.lockers[id]
	if !ok {
		return shared.ErrNotFound
	}
	existing.BranchID = locker.BranchID
	existing.Number = locker.Number
	r.lockers[id] = existing
	return nil
}

func (r *memoryLockerRepo) SetAssignment(ctx context.Context, id int64, status Status, memberID *int64, assignedAt *time.Time) error {
	l, ok := r.lockers[id]
	if !ok {
		return shared.ErrNotFound
	}
	l.Status = status
	l.MemberID = memberID
	l.AssignedAt = assignedAt
	r.lockers[id] = l
	return nil
}

func (r *memoryLockerRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.lockers[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.lockers, id)
	return nil
}

func TestAssignAvailableLocker(t *testing.T) {
	repo := newMemoryLockerRepo()
	svc := NewService(repo)

	locker, err := svc.Create(context.Background(), LockerForm{BranchID: 1, Number: "A12"})
	require.NoError(t, err)
	require.Equal(t, StatusAvailable, locker.Status)

	require.NoError(t, svc.Assign(context.Background(), locker.ID, 42))
	updated := repo.lockers[locker.ID]
	require.Equal(t, StatusAssigned, updated.Status)
	require.NotNil(t, updated.MemberID)
	require.Equal(t, int64(42), *updated.MemberID)
	require.NotNil(t, updated.AssignedAt)
}

func TestAssignNonAvailableLockerRejected(t *testing.T) {
	repo := newMemoryLockerRepo()
	svc := NewService(repo)

	locker, _ := svc.Create(context.Background(), LockerForm{BranchID: 1, Number: "A13"})
	require.NoError(t, svc.Assign(context.Background(), locker.ID, 42))

	err := svc.Assign(context.Background(), locker.ID, 43)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestReleaseAssignedLocker(t *testing.T) {
	repo := newMemoryLockerRepo()
	svc := NewService(repo)

	locker, _ := svc.Create(context.Background(), LockerForm{BranchID: 1, Number: "B1"})
	require.NoError(t, svc.Assign(context.Background(), locker.ID, 7))
	require.NoError(t, svc.Release(context.Background(), locker.ID))

	updated := repo.lockers[locker.ID]
	require.Equal(t, StatusAvailable, updated.Status)
	require.Nil(t, updated.MemberID)
	require.Nil(t, updated.AssignedAt)
}

func TestReleaseUnassignedLockerRejected(t *testing.T) {
	svc := NewService(newMemoryLockerRepo())
	locker, _ := svc.Create(context.Background(), LockerForm{BranchID: 1, Number: "B2"})
	err := svc.Release(context.Background(), locker.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestMaintenanceCycle(t *testing.T) {
	repo := newMemoryLockerRepo()
	svc := NewService(repo)

	locker, _ := svc.Create(context.Background(), LockerForm{BranchID: 1, Number: "C3"})
	require.NoError(t, svc.SetMaintenance(context.Background(), locker.ID, true))
	require.Equal(t, StatusMaintenance, repo.lockers[locker.ID].Status)

	err := svc.Assign(context.Background(), locker.ID, 9)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	require.NoError(t, svc.SetMaintenance(context.Background(), locker.ID, false))
	require.NoError(t, svc.Assign(context.Background(), locker.ID, 9))
}

func TestDuplicateLockerNumber(t *testing.T) {
	svc := NewService(newMemoryLockerRepo())
	_, err := svc.Create(context.Background(), LockerForm{BranchID: 1, Number: "D1"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), LockerForm{BranchID: 1, Number: "D1"})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/fitcore/fitcore/internal/shared"
)

type memoryAnalyticsRepo struct {
	events        []Event
	memberLoads   int
	memberSummary MemberSummary
	nextID        int64
}

func (r *memoryAnalyticsRepo) CreateEvent(ctx context.Context, event Event) (Event, error) {
	r.nextID++
	event.ID = r.nextID
	r.events = append(r.events, event)
	return event, nil
}

func (r *memoryAnalyticsRepo) ListEvents(ctx context.Context, filters ListFilters) ([]Event, int, error) {
	var out []Event
	for _, e := range r.events {
		if filters.EntityType != "" && e.EntityType != filters.EntityType {
			continue
		}
		out = append(out, e)
	}
	return out, len(out), nil
}

func (r *memoryAnalyticsRepo) MemberSummary(ctx context.Context, memberID int64) (MemberSummary, error) {
	r.memberLoads++
	s := r.memberSummary
	s.MemberID = memberID
	return s, nil
}

func (r *memoryAnalyticsRepo) TrainerSummary(ctx context.Context, trainerID int64) (TrainerSummary, error) {
	return TrainerSummary{TrainerID: trainerID, SessionCount: 4}, nil
}

func (r *memoryAnalyticsRepo) BranchSummary(ctx context.Context, branchID int64) (BranchSummary, error) {
	return BranchSummary{BranchID: branchID, MemberCount: 80}, nil
}

func newTestCache(t *testing.T) (*Cache, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), client
}

func TestRecordEventBumpsCacheVersion(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)
	repo := &memoryAnalyticsRepo{}
	svc := NewService(repo, cache)

	before, err := cache.Version(ctx)
	require.NoError(t, err)

	event, err := svc.Record(ctx, EventForm{
		EntityType: EntityMember,
		EntityID:   5,
		EventType:  "check-in",
	}, 1)
	require.NoError(t, err)
	require.NotZero(t, event.ID)
	require.False(t, event.OccurredAt.IsZero())

	after, err := cache.Version(ctx)
	require.NoError(t, err)
	require.Greater(t, after, before)
}

func TestEntityAnalyticsCachedUntilBump(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)
	repo := &memoryAnalyticsRepo{memberSummary: MemberSummary{VisitCount: 12}}
	svc := NewService(repo, cache)

	first, err := svc.EntityAnalytics(ctx, EntityMember, 5)
	require.NoError(t, err)
	require.Equal(t, 12, first.(MemberSummary).VisitCount)
	require.Equal(t, 1, repo.memberLoads)

	// Second read is served from cache.
	_, err = svc.EntityAnalytics(ctx, EntityMember, 5)
	require.NoError(t, err)
	require.Equal(t, 1, repo.memberLoads)

	// A version bump forces a reload.
	require.NoError(t, cache.Bump(ctx))
	_, err = svc.EntityAnalytics(ctx, EntityMember, 5)
	require.NoError(t, err)
	require.Equal(t, 2, repo.memberLoads)
}

func TestEntityAnalyticsDispatch(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)
	svc := NewService(&memoryAnalyticsRepo{}, cache)

	trainer, err := svc.EntityAnalytics(ctx, EntityTrainer, 3)
	require.NoError(t, err)
	require.Equal(t, 4, trainer.(TrainerSummary).SessionCount)

	branch, err := svc.EntityAnalytics(ctx, EntityBranch, 9)
	require.NoError(t, err)
	require.Equal(t, 80, branch.(BranchSummary).MemberCount)
}

func TestEntityAnalyticsRejectsUnknownType(t *testing.T) {
	cache, _ := newTestCache(t)
	svc := NewService(&memoryAnalyticsRepo{}, cache)
	_, err := svc.EntityAnalytics(context.Background(), "equipment", 1)
	require.ErrorIs(t, err, shared.ErrValidation)
}

package referrals

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fitcore/fitcore/internal/shared"
)

type memoryReferralRepo struct {
	referrals map[int64]Referral
	rewards   map[int64]Reward
	nextID    int64
}

func newMemoryReferralRepo() *memoryReferralRepo {
	return &memoryReferralRepo{referrals: make(map[int64]Referral), rewards: make(map[int64]Reward)}
}

func (r *memoryReferralRepo) CreateReferral(ctx context.Context, referral Referral) (Referral, error) {
	r.nextID++
	referral.ID = r.nextID
	r.referrals[referral.ID] = referral
	return referral, nil
}

func (r *memoryReferralRepo) ListReferrals(ctx context.Context, memberID int64) ([]Referral, error) {
	var out []Referral
	for _, ref := range r.referrals {
		if memberID > 0 && ref.ReferrerMemberID != memberID {
			continue
		}
		out = append(out, ref)
	}
	return out, nil
}

func (r *memoryReferralRepo) CreateReward(ctx context.Context, reward Reward) (Reward, error) {
	r.nextID++
	reward.ID = r.nextID
	r.rewards[reward.ID] = reward
	return reward, nil
}

func (r *memoryReferralRepo) ListRewards(ctx context.Context, status RewardStatus) ([]Reward, error) {
	var out []Reward
	for _, rw := range r.rewards {
		if status != "" && rw.Status != status {
			continue
		}
		out = append(out, rw)
	}
	return out, nil
}

func (r *memoryReferralRepo) GetReward(ctx context.Context, id int64) (Reward, error) {
	rw, ok := r.rewards[id]
	if !ok {
		return Reward{}, shared.ErrNotFound
	}
	return rw, nil
}

func (r *memoryReferralRepo) MarkClaimed(ctx context.Context, id int64, claimedAt time.Time) error {
	rw, ok := r.rewards[id]
	if !ok || rw.Status != RewardPending {
		return shared.ErrInvalidTransition
	}
	rw.Status = RewardClaimed
	rw.ClaimedAt = &claimedAt
	r.rewards[id] = rw
	return nil
}

func TestCreateReferralWithReward(t *testing.T) {
	repo := newMemoryReferralRepo()
	svc := NewService(repo)

	referral, err := svc.Create(context.Background(), ReferralForm{
		ReferrerMemberID: 1,
		ReferredMemberID: 2,
		BonusPercent:     5,
		RewardAmount:     200,
	})
	require.NoError(t, err)
	require.NotZero(t, referral.ID)

	rewards, err := svc.Rewards(context.Background(), RewardPending)
	require.NoError(t, err)
	require.Len(t, rewards, 1)
	require.Equal(t, referral.ID, rewards[0].ReferralID)
	require.Equal(t, 200.0, rewards[0].Amount)
}

func TestSelfReferralRejected(t *testing.T) {
	svc := NewService(newMemoryReferralRepo())
	_, err := svc.Create(context.Background(), ReferralForm{ReferrerMemberID: 3, ReferredMemberID: 3})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestClaimRewardOnce(t *testing.T) {
	repo := newMemoryReferralRepo()
	svc := NewService(repo)

	referral, err := svc.Create(context.Background(), ReferralForm{ReferrerMemberID: 1, ReferredMemberID: 2})
	require.NoError(t, err)
	reward, err := svc.CreateReward(context.Background(), referral.ID, 150)
	require.NoError(t, err)

	require.NoError(t, svc.Claim(context.Background(), reward.ID))
	claimed := repo.rewards[reward.ID]
	require.Equal(t, RewardClaimed, claimed.Status)
	require.NotNil(t, claimed.ClaimedAt)

	err = svc.Claim(context.Background(), reward.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestClaimUnknownReward(t *testing.T) {
	svc := NewService(newMemoryReferralRepo())
	err := svc.Claim(context.Background(), 99)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

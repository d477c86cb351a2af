// Package referrals tracks member referrals and their bonus rewards.
package referrals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitcore/fitcore/internal/shared"
)

// RewardStatus enumerates reward states.
type RewardStatus string

const (
	RewardPending RewardStatus = "pending"
	RewardClaimed RewardStatus = "claimed"
)

// Referral records one member bringing in another.
type Referral struct {
	ID               int64     `json:"id"`
	ReferrerMemberID int64     `json:"referrer_member_id"`
	ReferredMemberID int64     `json:"referred_member_id"`
	BonusPercent     float64   `json:"bonus_percent"`
	CreatedAt        time.Time `json:"created_at"`
}

// Reward is the payout owed for a referral.
type Reward struct {
	ID         int64        `json:"id"`
	ReferralID int64        `json:"referral_id"`
	Amount     float64      `json:"amount"`
	Status     RewardStatus `json:"status"`
	ClaimedAt  *time.Time   `json:"claimed_at,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// ReferralForm carries referral input.
type ReferralForm struct {
	ReferrerMemberID int64   `json:"referrer_member_id" validate:"required,gt=0"`
	ReferredMemberID int64   `json:"referred_member_id" validate:"required,gt=0"`
	BonusPercent     float64 `json:"bonus_percent" validate:"gte=0,lte=100"`
	// RewardAmount, when set, creates a pending reward with the
	// referral.
	RewardAmount float64 `json:"reward_amount" validate:"gte=0"`
}

// Repository provides persistence for referrals and rewards.
type Repository interface {
	CreateReferral(ctx context.Context, referral Referral) (Referral, error)
	ListReferrals(ctx context.Context, memberID int64) ([]Referral, error)
	CreateReward(ctx context.Context, reward Reward) (Reward, error)
	ListRewards(ctx context.Context, status RewardStatus) ([]Reward, error)
	GetReward(ctx context.Context, id int64) (Reward, error)
	MarkClaimed(ctx context.Context, id int64, claimedAt time.Time) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) CreateReferral(ctx context.Context, referral Referral) (Referral, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO referrals (referrer_member_id, referred_member_id, bonus_percent, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		referral.ReferrerMemberID, referral.ReferredMemberID, referral.BonusPercent, referral.CreatedAt).Scan(&referral.ID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Referral{}, shared.ErrDuplicate
	}
	return referral, err
}

func (r *repository) ListReferrals(ctx context.Context, memberID int64) ([]Referral, error) {
	query := `SELECT id, referrer_member_id, referred_member_id, bonus_percent, created_at FROM referrals`
	args := []any{}
	if memberID > 0 {
		query += ` WHERE referrer_member_id = $1`
		args = append(args, memberID)
	}
	query += ` ORDER BY id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Referral
	for rows.Next() {
		var ref Referral
		if err := rows.Scan(&ref.ID, &ref.ReferrerMemberID, &ref.ReferredMemberID, &ref.BonusPercent, &ref.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

func (r *repository) CreateReward(ctx context.Context, reward Reward) (Reward, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO referral_rewards (referral_id, amount, status, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		reward.ReferralID, reward.Amount, reward.Status, reward.CreatedAt).Scan(&reward.ID)
	return reward, err
}

func (r *repository) ListRewards(ctx context.Context, status RewardStatus) ([]Reward, error) {
	query := `SELECT id, referral_id, amount, status, claimed_at, created_at FROM referral_rewards`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Reward
	for rows.Next() {
		var rw Reward
		if err := rows.Scan(&rw.ID, &rw.ReferralID, &rw.Amount, &rw.Status, &rw.ClaimedAt, &rw.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rw)
	}
	return out, rows.Err()
}

func (r *repository) GetReward(ctx context.Context, id int64) (Reward, error) {
	var rw Reward
	err := r.db.QueryRow(ctx, `SELECT id, referral_id, amount, status, claimed_at, created_at FROM referral_rewards WHERE id = $1`, id).
		Scan(&rw.ID, &rw.ReferralID, &rw.Amount, &rw.Status, &rw.ClaimedAt, &rw.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Reward{}, shared.ErrNotFound
	}
	return rw, err
}

func (r *repository) MarkClaimed(ctx context.Context, id int64, claimedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE referral_rewards SET status = $1, claimed_at = $2 WHERE id = $3 AND status = $4`,
		RewardClaimed, claimedAt, id, RewardPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrInvalidTransition
	}
	return nil
}

// Service handles referral business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a referral, optionally with its pending reward.
func (s *Service) Create(ctx context.Context, form ReferralForm) (Referral, error) {
	if form.ReferrerMemberID == form.ReferredMemberID {
		return Referral{}, fmt.Errorf("%w: a member cannot refer themselves", shared.ErrValidation)
	}
	now := time.Now()
	referral, err := s.repo.CreateReferral(ctx, Referral{
		ReferrerMemberID: form.ReferrerMemberID,
		ReferredMemberID: form.ReferredMemberID,
		BonusPercent:     form.BonusPercent,
		CreatedAt:        now,
	})
	if err != nil {
		return Referral{}, err
	}
	if form.RewardAmount > 0 {
		if _, err := s.repo.CreateReward(ctx, Reward{
			ReferralID: referral.ID,
			Amount:     form.RewardAmount,
			Status:     RewardPending,
			CreatedAt:  now,
		}); err != nil {
			return Referral{}, err
		}
	}
	return referral, nil
}

// List returns referrals, optionally scoped to one referrer.
func (s *Service) List(ctx context.Context, memberID int64) ([]Referral, error) {
	return s.repo.ListReferrals(ctx, memberID)
}

// CreateReward adds a pending reward to an existing referral.
func (s *Service) CreateReward(ctx context.Context, referralID int64, amount float64) (Reward, error) {
	if referralID <= 0 {
		return Reward{}, fmt.Errorf("%w: invalid referral ID", shared.ErrValidation)
	}
	if amount <= 0 {
		return Reward{}, fmt.Errorf("%w: reward amount must be positive", shared.ErrValidation)
	}
	return s.repo.CreateReward(ctx, Reward{
		ReferralID: referralID,
		Amount:     amount,
		Status:     RewardPending,
		CreatedAt:  time.Now(),
	})
}

// Rewards returns rewards, optionally narrowed by status.
func (s *Service) Rewards(ctx context.Context, status RewardStatus) ([]Reward, error) {
	return s.repo.ListRewards(ctx, status)
}

// Claim settles a pending reward. Claimed rewards cannot be claimed
// again.
func (s *Service) Claim(ctx context.Context, rewardID int64) error {
	if _, err := s.repo.GetReward(ctx, rewardID); err != nil {
		return err
	}
	return s.repo.MarkClaimed(ctx, rewardID, time.Now())
}

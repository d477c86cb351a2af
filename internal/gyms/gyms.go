// Package gyms manages the top-level tenant entity and its aggregate
// views.
package gyms

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitcore/fitcore/internal/shared"
)

// Gym is a tenant: one gym brand owning branches.
type Gym struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stats aggregates counts across all gyms.
type Stats struct {
	TotalGyms         int     `json:"total_gyms"`
	TotalBranches     int     `json:"total_branches"`
	TotalMembers      int     `json:"total_members"`
	ActiveMemberships int     `json:"active_memberships"`
	BranchUtilization float64 `json:"branch_utilization_percent"`
}

// Analytics aggregates per-gym activity.
type Analytics struct {
	GymID             int64   `json:"gym_id"`
	BranchCount       int     `json:"branch_count"`
	MemberCount       int     `json:"member_count"`
	TrainerCount      int     `json:"trainer_count"`
	ActiveMemberships int     `json:"active_memberships"`
	TotalRevenue      float64 `json:"total_revenue"`
}

// ListFilters narrows gym listings.
type ListFilters struct {
	Search string
	City   string
}

// Repository provides persistence for gyms and their aggregates.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Gym, error)
	Get(ctx context.Context, id int64) (Gym, error)
	Create(ctx context.Context, gym Gym) (Gym, error)
	Update(ctx context.Context, id int64, gym Gym) error
	Delete(ctx context.Context, id int64) error
	BranchCount(ctx context.Context, gymID int64) (int, error)
	Stats(ctx context.Context) (Stats, error)
	MemberCount(ctx context.Context, gymID int64) (int, error)
	TrainerCount(ctx context.Context, gymID int64) (int, error)
	ActiveMembershipCount(ctx context.Context, gymID int64) (int, error)
	Revenue(ctx context.Context, gymID int64) (float64, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const gymColumns = `id, name, email, phone, address, city, created_at, updated_at`

func scanGym(row pgx.Row) (Gym, error) {
	var g Gym
	err := row.Scan(&g.ID, &g.Name, &g.Email, &g.Phone, &g.Address, &g.City, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Gym, error) {
	query := `SELECT ` + gymColumns + ` FROM gyms WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		query += ` AND name ILIKE $` + strconv.Itoa(argCount)
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.City != "" {
		argCount++
		query += ` AND city = $` + strconv.Itoa(argCount)
		args = append(args, filters.City)
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Gym
	for rows.Next() {
		g, err := scanGym(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Gym, error) {
	g, err := scanGym(r.db.QueryRow(ctx, `SELECT `+gymColumns+` FROM gyms WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Gym{}, shared.ErrNotFound
	}
	return g, err
}

func (r *repository) Create(ctx context.Context, gym Gym) (Gym, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO gyms (name, email, phone, address, city, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`,
		gym.Name, gym.Email, gym.Phone, gym.Address, gym.City, gym.CreatedAt).Scan(&gym.ID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Gym{}, shared.ErrDuplicate
	}
	return gym, err
}

func (r *repository) Update(ctx context.Context, id int64, gym Gym) error {
	tag, err := r.db.Exec(ctx, `UPDATE gyms SET name = $1, email = $2, phone = $3, address = $4, city = $5, updated_at = now() WHERE id = $6`,
		gym.Name, gym.Email, gym.Phone, gym.Address, gym.City, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM gyms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) BranchCount(ctx context.Context, gymID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM branches WHERE gym_id = $1`, gymID).Scan(&count)
	return count, err
}

func (r *repository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.db.QueryRow(ctx, `SELECT
		(SELECT COUNT(*) FROM gyms),
		(SELECT COUNT(*) FROM branches),
		(SELECT COUNT(*) FROM members),
		(SELECT COUNT(*) FROM member_memberships WHERE status = 'active'),
		COALESCE((SELECT COUNT(DISTINCT m.branch_id)::float8 / NULLIF(COUNT(DISTINCT b.id), 0) * 100
			FROM branches b LEFT JOIN members m ON m.branch_id = b.id), 0)`).
		Scan(&s.TotalGyms, &s.TotalBranches, &s.TotalMembers, &s.ActiveMemberships, &s.BranchUtilization)
	return s, err
}

func (r *repository) MemberCount(ctx context.Context, gymID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM members m JOIN branches b ON b.id = m.branch_id WHERE b.gym_id = $1`, gymID).Scan(&count)
	return count, err
}

func (r *repository) TrainerCount(ctx context.Context, gymID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM trainers t JOIN branches b ON b.id = t.branch_id WHERE b.gym_id = $1`, gymID).Scan(&count)
	return count, err
}

func (r *repository) ActiveMembershipCount(ctx context.Context, gymID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM member_memberships mm
		JOIN members m ON m.id = mm.member_id
		JOIN branches b ON b.id = m.branch_id
		WHERE b.gym_id = $1 AND mm.status = 'active'`, gymID).Scan(&count)
	return count, err
}

func (r *repository) Revenue(ctx context.Context, gymID int64) (float64, error) {
	var total float64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(i.total), 0) FROM invoices i
		JOIN member_memberships mm ON mm.id = i.membership_id
		JOIN members m ON m.id = mm.member_id
		JOIN branches b ON b.id = m.branch_id
		WHERE b.gym_id = $1 AND i.status = 'paid'`, gymID).Scan(&total)
	return total, err
}

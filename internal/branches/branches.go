// Package branches manages gym branch locations.
package branches

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitcore/fitcore/internal/shared"
)

// Branch is one physical location belonging to a gym.
type Branch struct {
	ID        int64     `json:"id"`
	GymID     int64     `json:"gym_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BranchForm carries branch input for create and update calls.
type BranchForm struct {
	GymID   int64  `json:"gym_id" validate:"required,gt=0"`
	Code    string `json:"code" validate:"required,alphanum,max=12"`
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
	City    string `json:"city"`
}

// ListFilters narrows branch listings.
type ListFilters struct {
	GymID  *int64
	Search string
}

// Repository provides persistence for branches.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Branch, error)
	Get(ctx context.Context, id int64) (Branch, error)
	Create(ctx context.Context, branch Branch) (Branch, error)
	Update(ctx context.Context, id int64, branch Branch) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const branchColumns = `id, gym_id, code, name, address, city, created_at, updated_at`

func scanBranch(row pgx.Row) (Branch, error) {
	var b Branch
	err := row.Scan(&b.ID, &b.GymID, &b.Code, &b.Name, &b.Address, &b.City, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Branch, error) {
	query := `SELECT ` + branchColumns + ` FROM branches WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.GymID != nil {
		argCount++
		query += ` AND gym_id = $` + strconv.Itoa(argCount)
		args = append(args, *filters.GymID)
	}
	if filters.Search != "" {
		argCount++
		ph := strconv.Itoa(argCount)
		query += ` AND (name ILIKE $` + ph + ` OR code ILIKE $` + ph + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	query += ` ORDER BY code`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Branch, error) {
	b, err := scanBranch(r.db.QueryRow(ctx, `SELECT `+branchColumns+` FROM branches WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Branch{}, shared.ErrNotFound
	}
	return b, err
}

func (r *repository) Create(ctx context.Context, branch Branch) (Branch, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO branches (gym_id, code, name, address, city, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`,
		branch.GymID, branch.Code, branch.Name, branch.Address, branch.City, branch.CreatedAt).Scan(&branch.ID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Branch{}, shared.ErrDuplicate
	}
	return branch, err
}

func (r *repository) Update(ctx context.Context, id int64, branch Branch) error {
	tag, err := r.db.Exec(ctx, `UPDATE branches SET gym_id = $1, code = $2, name = $3, address = $4, city = $5, updated_at = now() WHERE id = $6`,
		branch.GymID, branch.Code, branch.Name, branch.Address, branch.City, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrDuplicate
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM branches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Service handles branch business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns branches matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Branch, error) {
	return s.repo.List(ctx, filters)
}

// Get loads a single branch.
func (s *Service) Get(ctx context.Context, id int64) (Branch, error) {
	if id <= 0 {
		return Branch{}, fmt.Errorf("%w: invalid branch ID", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// Create registers a new branch.
func (s *Service) Create(ctx context.Context, form BranchForm) (Branch, error) {
	now := time.Now()
	return s.repo.Create(ctx, Branch{
		GymID:     form.GymID,
		Code:      form.Code,
		Name:      form.Name,
		Address:   form.Address,
		City:      form.City,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Update replaces editable branch fields.
func (s *Service) Update(ctx context.Context, id int64, form BranchForm) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid branch ID", shared.ErrValidation)
	}
	return s.repo.Update(ctx, id, Branch{
		GymID:   form.GymID,
		Code:    form.Code,
		Name:    form.Name,
		Address: form.Address,
		City:    form.City,
	})
}

// Delete removes a branch.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid branch ID", shared.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}

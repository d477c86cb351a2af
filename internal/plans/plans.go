// Package plans manages membership plan reference data.
package plans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitcore/fitcore/internal/shared"
)

// Plan describes a purchasable duration/price bundle.
type Plan struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Price          float64   `json:"price"`
	DurationMonths int       `json:"duration_months"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// Repository provides persistence for plans.
type Repository interface {
	List(ctx context.Context, activeOnly bool) ([]Plan, error)
	Get(ctx context.Context, id int64) (Plan, error)
	Create(ctx context.Context, plan Plan) (Plan, error)
	Update(ctx context.Context, id int64, plan Plan) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, activeOnly bool) ([]Plan, error) {
	query := `SELECT id, name, price, duration_months, is_active, created_at FROM membership_plans`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY price`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Plan
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.DurationMonths, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Plan, error) {
	var p Plan
	err := r.db.QueryRow(ctx, `SELECT id, name, price, duration_months, is_active, created_at FROM membership_plans WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.DurationMonths, &p.IsActive, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Plan{}, shared.ErrNotFound
	}
	return p, err
}

func (r *repository) Create(ctx context.Context, plan Plan) (Plan, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO membership_plans (name, price, duration_months, is_active, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		plan.Name, plan.Price, plan.DurationMonths, plan.IsActive, plan.CreatedAt).Scan(&plan.ID)
	return plan, err
}

func (r *repository) Update(ctx context.Context, id int64, plan Plan) error {
	tag, err := r.db.Exec(ctx, `UPDATE membership_plans SET name = $1, price = $2, duration_months = $3, is_active = $4 WHERE id = $5`,
		plan.Name, plan.Price, plan.DurationMonths, plan.IsActive, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Service handles plan business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns plans, optionally only active ones.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]Plan, error) {
	return s.repo.List(ctx, activeOnly)
}

// Get loads a plan by ID.
func (s *Service) Get(ctx context.Context, id int64) (Plan, error) {
	if id <= 0 {
		return Plan{}, fmt.Errorf("%w: invalid plan ID", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// Create adds a new plan after validation.
func (s *Service) Create(ctx context.Context, plan Plan) (Plan, error) {
	if err := s.validate(plan); err != nil {
		return Plan{}, err
	}
	plan.CreatedAt = time.Now()
	return s.repo.Create(ctx, plan)
}

// Update replaces plan fields.
func (s *Service) Update(ctx context.Context, id int64, plan Plan) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid plan ID", shared.ErrValidation)
	}
	if err := s.validate(plan); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, plan)
}

func (s *Service) validate(p Plan) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: plan name is required", shared.ErrValidation)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: plan price must not be negative", shared.ErrValidation)
	}
	if p.DurationMonths <= 0 {
		return fmt.Errorf("%w: plan duration must be positive", shared.ErrValidation)
	}
	return nil
}

// Package trainers manages trainer records per branch.
package trainers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitcore/fitcore/internal/shared"
)

// Trainer is a coach attached to a branch.
type Trainer struct {
	ID        int64     `json:"id"`
	BranchID  int64     `json:"branch_id"`
	Name      string    `json:"name"`
	Specialty string    `json:"specialty"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TrainerForm carries trainer input for create and update calls.
type TrainerForm struct {
	BranchID  int64  `json:"branch_id" validate:"required,gt=0"`
	Name      string `json:"name" validate:"required"`
	Specialty string `json:"specialty"`
	Phone     string `json:"phone" validate:"omitempty,min=7,max=20"`
	Email     string `json:"email" validate:"omitempty,email"`
	IsActive  bool   `json:"is_active"`
}

// ListFilters narrows trainer listings.
type ListFilters struct {
	BranchID   *int64
	Search     string
	ActiveOnly bool
}

// Repository provides persistence for trainers.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Trainer, error)
	Get(ctx context.Context, id int64) (Trainer, error)
	Create(ctx context.Context, trainer Trainer) (Trainer, error)
	Update(ctx context.Context, id int64, trainer Trainer) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const trainerColumns = `id, branch_id, name, specialty, phone, email, is_active, created_at, updated_at`

func scanTrainer(row pgx.Row) (Trainer, error) {
	var t Trainer
	err := row.Scan(&t.ID, &t.BranchID, &t.Name, &t.Specialty, &t.Phone, &t.Email, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Trainer, error) {
	query := `SELECT ` + trainerColumns + ` FROM trainers WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.BranchID != nil {
		argCount++
		query += ` AND branch_id = $` + strconv.Itoa(argCount)
		args = append(args, *filters.BranchID)
	}
	if filters.Search != "" {
		argCount++
		ph := strconv.Itoa(argCount)
		query += ` AND (name ILIKE $` + ph + ` OR specialty ILIKE $` + ph + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.ActiveOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Trainer
	for rows.Next() {
		t, err := scanTrainer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Trainer, error) {
	t, err := scanTrainer(r.db.QueryRow(ctx, `SELECT `+trainerColumns+` FROM trainers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Trainer{}, shared.ErrNotFound
	}
	return t, err
}

func (r *repository) Create(ctx context.Context, trainer Trainer) (Trainer, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO trainers (branch_id, name, specialty, phone, email, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7) RETURNING id`,
		trainer.BranchID, trainer.Name, trainer.Specialty, trainer.Phone, trainer.Email, trainer.IsActive, trainer.CreatedAt).Scan(&trainer.ID)
	return trainer, err
}

func (r *repository) Update(ctx context.Context, id int64, trainer Trainer) error {
	tag, err := r.db.Exec(ctx, `UPDATE trainers SET branch_id = $1, name = $2, specialty = $3, phone = $4, email = $5, is_active = $6, updated_at = now() WHERE id = $7`,
		trainer.BranchID, trainer.Name, trainer.Specialty, trainer.Phone, trainer.Email, trainer.IsActive, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM trainers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Service handles trainer business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns trainers matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Trainer, error) {
	return s.repo.List(ctx, filters)
}

// Get loads a single trainer.
func (s *Service) Get(ctx context.Context, id int64) (Trainer, error) {
	if id <= 0 {
		return Trainer{}, fmt.Errorf("%w: invalid trainer ID", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// Create registers a new trainer.
func (s *Service) Create(ctx context.Context, form TrainerForm) (Trainer, error) {
	now := time.Now()
	return s.repo.Create(ctx, Trainer{
		BranchID:  form.BranchID,
		Name:      form.Name,
		Specialty: form.Specialty,
		Phone:     form.Phone,
		Email:     form.Email,
		IsActive:  form.IsActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Update replaces editable trainer fields.
func (s *Service) Update(ctx context.Context, id int64, form TrainerForm) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid trainer ID", shared.ErrValidation)
	}
	return s.repo.Update(ctx, id, Trainer{
		BranchID:  form.BranchID,
		Name:      form.Name,
		Specialty: form.Specialty,
		Phone:     form.Phone,
		Email:     form.Email,
		IsActive:  form.IsActive,
	})
}

// Delete removes a trainer.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid trainer ID", shared.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}

// Package goals tracks member fitness goals set with a trainer.
package goals

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

// Status enumerates goal states.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAchieved  Status = "achieved"
	StatusAbandoned Status = "abandoned"
)

// Goal is a target a member works toward with a trainer.
type Goal struct {
	ID         int64      `json:"id"`
	MemberID   int64      `json:"member_id"`
	TrainerID  int64      `json:"trainer_id"`
	Title      string     `json:"title"`
	Notes      string     `json:"notes"`
	TargetDate *time.Time `json:"target_date,omitempty"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// GoalForm carries goal input for create and update calls.
type GoalForm struct {
	MemberID   int64      `json:"member_id" validate:"required,gt=0"`
	TrainerID  int64      `json:"trainer_id" validate:"required,gt=0"`
	Title      string     `json:"title" validate:"required"`
	Notes      string     `json:"notes"`
	TargetDate *time.Time `json:"target_date"`
}

// ListFilters narrows goal listings.
type ListFilters struct {
	MemberID  *int64
	TrainerID *int64
	Status    Status
}

// Repository provides persistence for goals.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Goal, error)
	Get(ctx context.Context, id int64) (Goal, error)
	Create(ctx context.Context, goal Goal) (Goal, error)
	Update(ctx context.Context, id int64, goal Goal) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const goalColumns = `id, member_id, trainer_id, title, notes, target_date, status, created_at, updated_at`

func scanGoal(row pgx.Row) (Goal, error) {
	var g Goal
	err := row.Scan(&g.ID, &g.MemberID, &g.TrainerID, &g.Title, &g.Notes, &g.TargetDate, &g.Status, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.MemberID != nil {
		argCount++
		query += ` AND member_id = $` + strconv.Itoa(argCount)
		args = append(args, *filters.MemberID)
	}
	if filters.TrainerID != nil {
		argCount++
		query += ` AND trainer_id = $` + strconv.Itoa(argCount)
		args = append(args, *filters.TrainerID)
	}
	if filters.Status != "" {
		argCount++
		query += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, filters.Status)
	}
	query += ` ORDER BY id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Goal, error) {
	g, err := scanGoal(r.db.QueryRow(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Goal{}, shared.ErrNotFound
	}
	return g, err
}

func (r *repository) Create(ctx context.Context, goal Goal) (Goal, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO goals (member_id, trainer_id, title, notes, target_date, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7) RETURNING id`,
		goal.MemberID, goal.TrainerID, goal.Title, goal.Notes, goal.TargetDate, goal.Status, goal.CreatedAt).Scan(&goal.ID)
	return goal, err
}

func (r *repository) Update(ctx context.Context, id int64, goal Goal) error {
	tag, err := r.db.Exec(ctx, `UPDATE goals SET member_id = $1, trainer_id = $2, title = $3, notes = $4, target_date = $5, updated_at = now() WHERE id = $6`,
		goal.MemberID, goal.TrainerID, goal.Title, goal.Notes, goal.TargetDate, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE goals SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM goals WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Service handles goal business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns goals matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Goal, error) {
	return s.repo.List(ctx, filters)
}

// Get loads a single goal.
func (s *Service) Get(ctx context.Context, id int64) (Goal, error) {
	if id <= 0 {
		return Goal{}, fmt.Errorf("%w: invalid goal ID", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// Create registers a new goal in pending status.
func (s *Service) Create(ctx context.Context, form GoalForm) (Goal, error) {
	now := time.Now()
	return s.repo.Create(ctx, Goal{
		MemberID:   form.MemberID,
		TrainerID:  form.TrainerID,
		Title:      form.Title,
		Notes:      form.Notes,
		TargetDate: form.TargetDate,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

// Update replaces editable goal fields.
func (s *Service) Update(ctx context.Context, id int64, form GoalForm) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid goal ID", shared.ErrValidation)
	}
	return s.repo.Update(ctx, id, Goal{
		MemberID:   form.MemberID,
		TrainerID:  form.TrainerID,
		Title:      form.Title,
		Notes:      form.Notes,
		TargetDate: form.TargetDate,
	})
}

// SetStatus moves a goal to a new status. Only pending goals can move.
func (s *Service) SetStatus(ctx context.Context, id int64, status Status) error {
	if status != StatusAchieved && status != StatusAbandoned {
		return fmt.Errorf("%w: status must be achieved or abandoned", shared.ErrValidation)
	}
	goal, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if goal.Status != StatusPending {
		return fmt.Errorf("%w: goal %s -> %s", shared.ErrInvalidTransition, goal.Status, status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// Delete removes a goal.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid goal ID", shared.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}

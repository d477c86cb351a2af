// Package lockers manages branch lockers and their assignment to
// members.
package lockers

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

// Status enumerates locker states.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusAssigned    Status = "assigned"
	StatusMaintenance Status = "maintenance"
)

// Locker is a numbered storage unit in a branch.
type Locker struct {
	ID         int64      `json:"id"`
	BranchID   int64      `json:"branch_id"`
	Number     string     `json:"number"`
	Status     Status     `json:"status"`
	MemberID   *int64     `json:"member_id,omitempty"`
	AssignedAt *time.Time `json:"assigned_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// LockerForm carries locker input for create and update calls.
type LockerForm struct {
	BranchID int64  `json:"branch_id" validate:"required,gt=0"`
	Number   string `json:"number" validate:"required,max=16"`
}

// ListFilters narrows locker listings.
type ListFilters struct {
	BranchID *int64
	Status   Status
}

// Repository provides persistence for lockers.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Locker, error)
	Get(ctx context.Context, id int64) (Locker, error)
	Create(ctx context.Context, locker Locker) (Locker, error)
	Update(ctx context.Context, id int64, locker Locker) error
	SetAssignment(ctx context.Context, id int64, status Status, memberID *int64, assignedAt *time.Time) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const lockerColumns = `id, branch_id, number, status, member_id, assigned_at, created_at, updated_at`

func scanLocker(row pgx.Row) (Locker, error) {
	var l Locker
	err := row.Scan(&l.ID, &l.BranchID, &l.Number, &l.Status, &l.MemberID, &l.AssignedAt, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Locker, error) {
	query := `SELECT ` + lockerColumns + ` FROM lockers WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.BranchID != nil {
		argCount++
		query += ` AND branch_id = $` + strconv.Itoa(argCount)
		args = append(args, *filters.BranchID)
	}
	if filters.Status != "" {
		argCount++
		query += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, filters.Status)
	}
	query += ` ORDER BY branch_id, number`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Locker
	for rows.Next() {
		l, err := scanLocker(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Locker, error) {
	l, err := scanLocker(r.db.QueryRow(ctx, `SELECT `+lockerColumns+` FROM lockers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Locker{}, shared.ErrNotFound
	}
	return l, err
}

func (r *repository) Create(ctx context.Context, locker Locker) (Locker, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO lockers (branch_id, number, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $4) RETURNING id`,
		locker.BranchID, locker.Number, locker.Status, locker.CreatedAt).Scan(&locker.ID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Locker{}, shared.ErrDuplicate
	}
	return locker, err
}

func (r *repository) Update(ctx context.Context, id int64, locker Locker) error {
	tag, err := r.db.Exec(ctx, `UPDATE lockers SET branch_id = $1, number = $2, updated_at = now() WHERE id = $3`,
		locker.BranchID, locker.Number, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetAssignment(ctx context.Context, id int64, status Status, memberID *int64, assignedAt *time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE lockers SET status = $1, member_id = $2, assigned_at = $3, updated_at = now() WHERE id = $4`,
		status, memberID, assignedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM lockers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Service handles locker business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns lockers matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Locker, error) {
	return s.repo.List(ctx, filters)
}

// Get loads a single locker.
func (s *Service) Get(ctx context.Context, id int64) (Locker, error) {
	if id <= 0 {
		return Locker{}, fmt.Errorf("%w: invalid locker ID", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// Create registers a new locker as available.
func (s *Service) Create(ctx context.Context, form LockerForm) (Locker, error) {
	now := time.Now()
	return s.repo.Create(ctx, Locker{
		BranchID:  form.BranchID,
		Number:    form.Number,
		Status:    StatusAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Update replaces editable locker fields.
func (s *Service) Update(ctx context.Context, id int64, form LockerForm) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid locker ID", shared.ErrValidation)
	}
	return s.repo.Update(ctx, id, Locker{BranchID: form.BranchID, Number: form.Number})
}

// Assign hands a locker to a member. Only available lockers can be
// assigned.
func (s *Service) Assign(ctx context.Context, id, memberID int64) error {
	if memberID <= 0 {
		return fmt.Errorf("%w: invalid member ID", shared.ErrValidation)
	}
	locker, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if locker.Status != StatusAvailable {
		return fmt.Errorf("%w: locker is %s", shared.ErrInvalidTransition, locker.Status)
	}
	now := time.Now()
	return s.repo.SetAssignment(ctx, id, StatusAssigned, &memberID, &now)
}

// Release frees an assigned locker.
func (s *Service) Release(ctx context.Context, id int64) error {
	locker, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if locker.Status != StatusAssigned {
		return fmt.Errorf("%w: locker is %s", shared.ErrInvalidTransition, locker.Status)
	}
	return s.repo.SetAssignment(ctx, id, StatusAvailable, nil, nil)
}

// SetMaintenance takes an unassigned locker out of service, or returns
// it.
func (s *Service) SetMaintenance(ctx context.Context, id int64, under bool) error {
	locker, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if under {
		if locker.Status != StatusAvailable {
			return fmt.Errorf("%w: locker is %s", shared.ErrInvalidTransition, locker.Status)
		}
		return s.repo.SetAssignment(ctx, id, StatusMaintenance, nil, nil)
	}
	if locker.Status != StatusMaintenance {
		return fmt.Errorf("%w: locker is %s", shared.ErrInvalidTransition, locker.Status)
	}
	return s.repo.SetAssignment(ctx, id, StatusAvailable, nil, nil)
}

// Delete removes a locker.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid locker ID", shared.ErrValidation)
	}
	return s.repo.Delete(ctx, id)
}

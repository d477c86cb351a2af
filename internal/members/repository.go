package members

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitcore/fitcore/internal/shared"
)

// Repository provides persistence for members.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Member, int, error)
	Get(ctx context.Context, id int64) (Member, error)
	Create(ctx context.Context, member Member) (Member, error)
	Update(ctx context.Context, id int64, member Member) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const memberColumns = `id, public_id, branch_id, first_name, last_name, email, phone, address, city, created_by, created_at, updated_at`

func scanMember(row pgx.Row) (Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.PublicID, &m.BranchID, &m.FirstName, &m.LastName, &m.Email, &m.Phone, &m.Address, &m.City, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Member, int, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM members WHERE 1=1`
	args := []any{}
	countArgs := []any{}
	argCount := 0

	if filters.BranchID != nil {
		argCount++
		cond := ` AND branch_id = $` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, *filters.BranchID)
		countArgs = append(countArgs, *filters.BranchID)
	}
	if filters.Search != "" {
		argCount++
		ph := strconv.Itoa(argCount)
		cond := ` AND (first_name ILIKE $` + ph + ` OR last_name ILIKE $` + ph + ` OR email ILIKE $` + ph + `)`
		query += cond
		countQuery += cond
		args = append(args, "%"+filters.Search+"%")
		countArgs = append(countArgs, "%"+filters.Search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY last_name, first_name`
	if filters.PerPage > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.PerPage)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.PerPage
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Member, error) {
	m, err := scanMember(r.db.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Member{}, shared.ErrNotFound
	}
	return m, err
}

func (r *repository) Create(ctx context.Context, member Member) (Member, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO members (public_id, branch_id, first_name, last_name, email, phone, address, city, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10) RETURNING id`,
		member.PublicID, member.BranchID, member.FirstName, member.LastName, member.Email, member.Phone, member.Address, member.City, member.CreatedBy, member.CreatedAt).Scan(&member.ID)
	if err != nil {
		return Member{}, mapPGError(err)
	}
	return member, nil
}

func (r *repository) Update(ctx context.Context, id int64, member Member) error {
	tag, err := r.db.Exec(ctx, `UPDATE members SET branch_id = $1, first_name = $2, last_name = $3, email = $4, phone = $5, address = $6, city = $7, updated_at = now() WHERE id = $8`,
		member.BranchID, member.FirstName, member.LastName, member.Email, member.Phone, member.Address, member.City, id)
	if err != nil {
		return mapPGError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func mapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}

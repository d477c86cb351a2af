package billing

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitcore/fitcore/internal/members"
	"github.com/fitcore/fitcore/internal/shared"
)

// Store is the persistence surface the billing service depends on.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetMembership(ctx context.Context, id int64) (Membership, error)
	GetInvoice(ctx context.Context, id int64) (Invoice, error)
	GetInvoiceByMembership(ctx context.Context, membershipID int64) (Invoice, error)
	ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error)
}

// TxRepository exposes the writes that must share one transaction.
type TxRepository interface {
	CreateMember(ctx context.Context, member members.Member) (int64, error)
	CreateMembership(ctx context.Context, membership Membership) (int64, error)
	CreateInvoice(ctx context.Context, invoice Invoice) (int64, error)
	UpdateInvoiceStatus(ctx context.Context, id int64, status InvoiceStatus) error
	UpdateMembershipPayment(ctx context.Context, id int64, payment PaymentStatus, status MembershipStatus) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepo{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const membershipColumns = `id, member_id, plan_id, start_date, end_date, status, payment_status, discount_percent, discount_amount, gst_enabled, gst_amount, final_amount, created_by, created_at, updated_at`

func scanMembership(row pgx.Row) (Membership, error) {
	var m Membership
	err := row.Scan(&m.ID, &m.MemberID, &m.PlanID, &m.StartDate, &m.EndDate, &m.Status, &m.PaymentStatus,
		&m.DiscountPercent, &m.DiscountAmount, &m.GSTEnabled, &m.GSTAmount, &m.FinalAmount,
		&m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

const invoiceColumns = `id, invoice_number, membership_id, subtotal, discount, tax, total, status, due_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.MembershipID, &inv.Subtotal, &inv.Discount, &inv.Tax, &inv.Total,
		&inv.Status, &inv.DueAt, &inv.CreatedAt, &inv.UpdatedAt)
	return inv, err
}

// GetMembership loads a single membership.
func (r *Repository) GetMembership(ctx context.Context, id int64) (Membership, error) {
	m, err := scanMembership(r.pool.QueryRow(ctx, `SELECT `+membershipColumns+` FROM member_memberships WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Membership{}, shared.ErrNotFound
	}
	return m, err
}

// GetInvoice loads a single invoice.
func (r *Repository) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, shared.ErrNotFound
	}
	return inv, err
}

// GetInvoiceByMembership loads the invoice generated with a membership.
func (r *Repository) GetInvoiceByMembership(ctx context.Context, membershipID int64) (Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE membership_id = $1 ORDER BY id DESC LIMIT 1`, membershipID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, shared.ErrNotFound
	}
	return inv, err
}

// ListInvoices returns invoices narrowed by the request filters.
func (r *Repository) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE 1=1`
	args := []any{}
	argCount := 0

	if req.Status != "" {
		argCount++
		query += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, req.Status)
	}
	if req.MembershipID > 0 {
		argCount++
		query += ` AND membership_id = $` + strconv.Itoa(argCount)
		args = append(args, req.MembershipID)
	}
	query += ` ORDER BY id DESC`
	if req.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, req.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// ExpireMemberships flips active memberships past their end date to
// expired. Used by the daily scan.
func (r *Repository) ExpireMemberships(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE member_memberships SET status = $1, updated_at = now() WHERE status = $2 AND end_date < $3`,
		MembershipExpired, MembershipActive, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// MarkOverdueInvoices flips sent invoices past their due date to
// overdue. Used by the daily scan.
func (r *Repository) MarkOverdueInvoices(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE invoices SET status = $1, updated_at = now() WHERE status = $2 AND due_at < $3`,
		InvoiceOverdue, InvoiceSent, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (tx *txRepo) CreateMember(ctx context.Context, member members.Member) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx, `INSERT INTO members (public_id, branch_id, first_name, last_name, email, phone, address, city, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10) RETURNING id`,
		member.PublicID, member.BranchID, member.FirstName, member.LastName, member.Email, member.Phone, member.Address, member.City, member.CreatedBy, member.CreatedAt).Scan(&id)
	return id, mapPGError(err)
}

func (tx *txRepo) CreateMembership(ctx context.Context, m Membership) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx, `INSERT INTO member_memberships (member_id, plan_id, start_date, end_date, status, payment_status, discount_percent, discount_amount, gst_enabled, gst_amount, final_amount, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13) RETURNING id`,
		m.MemberID, m.PlanID, m.StartDate, m.EndDate, m.Status, m.PaymentStatus,
		m.DiscountPercent, m.DiscountAmount, m.GSTEnabled, m.GSTAmount, m.FinalAmount,
		m.CreatedBy, m.CreatedAt).Scan(&id)
	return id, err
}

func (tx *txRepo) CreateInvoice(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx, `INSERT INTO invoices (invoice_number, membership_id, subtotal, discount, tax, total, status, due_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9) RETURNING id`,
		inv.Number, inv.MembershipID, inv.Subtotal, inv.Discount, inv.Tax, inv.Total, inv.Status, inv.DueAt, inv.CreatedAt).Scan(&id)
	return id, mapPGError(err)
}

func (tx *txRepo) UpdateInvoiceStatus(ctx context.Context, id int64, status InvoiceStatus) error {
	tag, err := tx.tx.Exec(ctx, `UPDATE invoices SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (tx *txRepo) UpdateMembershipPayment(ctx context.Context, id int64, payment PaymentStatus, status MembershipStatus) error {
	tag, err := tx.tx.Exec(ctx, `UPDATE member_memberships SET payment_status = $1, status = $2, updated_at = now() WHERE id = $3`, payment, status, id)
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

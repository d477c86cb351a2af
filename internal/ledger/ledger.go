// Package ledger keeps the append-only income/expense transaction log.
// Entries are never updated or deleted.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitcore/fitcore/internal/shared"
)

// Kind classifies an entry as money in or money out.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Entry is a single immutable ledger row.
type Entry struct {
	ID         int64     `json:"id"`
	CategoryID int64     `json:"category_id"`
	Kind       Kind      `json:"kind"`
	Amount     float64   `json:"amount"`
	Method     string    `json:"method"`
	Reference  string    `json:"reference"`
	Notes      string    `json:"notes"`
	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Category groups entries for reporting.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// EntryFilters narrows ledger listings.
type EntryFilters struct {
	Kind       Kind
	CategoryID int64
	From       time.Time
	To         time.Time
	Limit      int
}

// Repository provides persistence for entries and categories.
type Repository interface {
	CreateEntry(ctx context.Context, entry Entry) (Entry, error)
	ListEntries(ctx context.Context, filters EntryFilters) ([]Entry, error)
	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, category Category) (Category, error)
	FindCategoryByName(ctx context.Context, name string) (Category, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a pgx-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) CreateEntry(ctx context.Context, entry Entry) (Entry, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO ledger_entries (category_id, kind, amount, method, reference, notes, occurred_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		entry.CategoryID, entry.Kind, entry.Amount, entry.Method, entry.Reference, entry.Notes, entry.OccurredAt, entry.CreatedAt).Scan(&entry.ID)
	return entry, err
}

func (r *repository) ListEntries(ctx context.Context, filters EntryFilters) ([]Entry, error) {
	query := `SELECT id, category_id, kind, amount, method, reference, notes, occurred_at, created_at FROM ledger_entries WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Kind != "" {
		argCount++
		query += ` AND kind = $` + strconv.Itoa(argCount)
		args = append(args, filters.Kind)
	}
	if filters.CategoryID > 0 {
		argCount++
		query += ` AND category_id = $` + strconv.Itoa(argCount)
		args = append(args, filters.CategoryID)
	}
	if !filters.From.IsZero() {
		argCount++
		query += ` AND occurred_at >= $` + strconv.Itoa(argCount)
		args = append(args, filters.From)
	}
	if !filters.To.IsZero() {
		argCount++
		query += ` AND occurred_at < $` + strconv.Itoa(argCount)
		args = append(args, filters.To)
	}
	query += ` ORDER BY occurred_at DESC, id DESC`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.CategoryID, &e.Kind, &e.Amount, &e.Method, &e.Reference, &e.Notes, &e.OccurredAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, kind FROM transaction_categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) CreateCategory(ctx context.Context, category Category) (Category, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO transaction_categories (name, kind) VALUES ($1, $2) RETURNING id`,
		category.Name, category.Kind).Scan(&category.ID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Category{}, shared.ErrDuplicate
	}
	return category, err
}

func (r *repository) FindCategoryByName(ctx context.Context, name string) (Category, error) {
	var c Category
	err := r.db.QueryRow(ctx, `SELECT id, name, kind FROM transaction_categories WHERE name = $1`, name).Scan(&c.ID, &c.Name, &c.Kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, shared.ErrNotFound
	}
	return c, err
}

// membershipPaymentCategory is the category all recorded membership
// payments land under.
const membershipPaymentCategory = "Membership Payment"

// Service handles ledger business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// EntryForm carries entry input.
type EntryForm struct {
	CategoryID int64     `json:"category_id" validate:"required,gt=0"`
	Kind       Kind      `json:"kind" validate:"required,oneof=income expense"`
	Amount     float64   `json:"amount" validate:"gte=0"`
	Method     string    `json:"method" validate:"required"`
	Reference  string    `json:"reference"`
	Notes      string    `json:"notes"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Append records a new ledger entry.
func (s *Service) Append(ctx context.Context, form EntryForm) (Entry, error) {
	occurred := form.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	return s.repo.CreateEntry(ctx, Entry{
		CategoryID: form.CategoryID,
		Kind:       form.Kind,
		Amount:     form.Amount,
		Method:     form.Method,
		Reference:  form.Reference,
		Notes:      form.Notes,
		OccurredAt: occurred,
		CreatedAt:  time.Now(),
	})
}

// List returns entries matching the filters.
func (s *Service) List(ctx context.Context, filters EntryFilters) ([]Entry, error) {
	if filters.Limit <= 0 || filters.Limit > 200 {
		filters.Limit = 50
	}
	return s.repo.ListEntries(ctx, filters)
}

// Categories returns all transaction categories.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

// CreateCategory adds a new category after validation.
func (s *Service) CreateCategory(ctx context.Context, category Category) (Category, error) {
	if strings.TrimSpace(category.Name) == "" {
		return Category{}, fmt.Errorf("%w: category name is required", shared.ErrValidation)
	}
	if category.Kind != KindIncome && category.Kind != KindExpense {
		return Category{}, fmt.Errorf("%w: kind must be income or expense", shared.ErrValidation)
	}
	return s.repo.CreateCategory(ctx, category)
}

// RecordMembershipPayment appends an income entry under the membership
// payment category, creating the category on first use.
func (s *Service) RecordMembershipPayment(ctx context.Context, amount float64, method, reference, notes string, paidAt time.Time) error {
	category, err := s.repo.FindCategoryByName(ctx, membershipPaymentCategory)
	if errors.Is(err, shared.ErrNotFound) {
		category, err = s.repo.CreateCategory(ctx, Category{Name: membershipPaymentCategory, Kind: KindIncome})
	}
	if err != nil {
		return err
	}
	_, err = s.repo.CreateEntry(ctx, Entry{
		CategoryID: category.ID,
		Kind:       KindIncome,
		Amount:     amount,
		Method:     method,
		Reference:  reference,
		Notes:      notes,
		OccurredAt: paidAt,
		CreatedAt:  time.Now(),
	})
	return err
}

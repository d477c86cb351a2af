package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fitcore/fitcore/internal/shared"
)

type memoryLedgerRepo struct {
	entries    []Entry
	categories map[int64]Category
	nextID     int64
}

func newMemoryLedgerRepo() *memoryLedgerRepo {
	return &memoryLedgerRepo{categories: make(map[int64]Category)}
}

func (r *memoryLedgerRepo) CreateEntry(ctx context.Context, entry Entry) (Entry, error) {
	r.nextID++
	entry.ID = r.nextID
	r.entries = append(r.entries, entry)
	return entry, nil
}

func (r *memoryLedgerRepo) ListEntries(ctx context.Context, filters EntryFilters) ([]Entry, error) {
	var out []Entry
	for _, e := range r.entries {
		if filters.Kind != "" && e.Kind != filters.Kind {
			continue
		}
		if filters.CategoryID > 0 && e.CategoryID != filters.CategoryID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *memoryLedgerRepo) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	for _, c := range r.categories {
		out = append(out, c)
	}
	return out, nil
}

func (r *memoryLedgerRepo) CreateCategory(ctx context.Context, category Category) (Category, error) {
	for _, c := range r.categories {
		if c.Name == category.Name {
			return Category{}, shared.ErrDuplicate
		}
	}
	r.nextID++
	category.ID = r.nextID
	r.categories[category.ID] = category
	return category, nil
}

func (r *memoryLedgerRepo) FindCategoryByName(ctx context.Context, name string) (Category, error) {
	for _, c := range r.categories {
		if c.Name == name {
			return c, nil
		}
	}
	return Category{}, shared.ErrNotFound
}

func TestAppendEntry(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := NewService(repo)

	cat, err := svc.CreateCategory(context.Background(), Category{Name: "Rent", Kind: KindExpense})
	require.NoError(t, err)

	entry, err := svc.Append(context.Background(), EntryForm{
		CategoryID: cat.ID,
		Kind:       KindExpense,
		Amount:     15000,
		Method:     "transfer",
		Notes:      "March rent",
	})
	require.NoError(t, err)
	require.NotZero(t, entry.ID)
	require.False(t, entry.OccurredAt.IsZero())
}

func TestCreateCategoryValidation(t *testing.T) {
	svc := NewService(newMemoryLedgerRepo())

	_, err := svc.CreateCategory(context.Background(), Category{Name: "  ", Kind: KindIncome})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateCategory(context.Background(), Category{Name: "Misc", Kind: "transfer"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestRecordMembershipPaymentCreatesCategoryOnce(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := NewService(repo)

	paidAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, svc.RecordMembershipPayment(context.Background(), 4248, "upi", "UPI-1", "", paidAt))
	require.NoError(t, svc.RecordMembershipPayment(context.Background(), 1000, "cash", "", "", paidAt))

	require.Len(t, repo.categories, 1)
	require.Len(t, repo.entries, 2)
	require.Equal(t, KindIncome, repo.entries[0].Kind)
	require.Equal(t, paidAt, repo.entries[0].OccurredAt)
}

func TestListFiltersByKind(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := NewService(repo)

	cat, _ := svc.CreateCategory(context.Background(), Category{Name: "Equipment", Kind: KindExpense})
	_, _ = svc.Append(context.Background(), EntryForm{CategoryID: cat.ID, Kind: KindExpense, Amount: 500, Method: "card"})
	require.NoError(t, svc.RecordMembershipPayment(context.Background(), 2000, "cash", "", "", time.Now()))

	income, err := svc.List(context.Background(), EntryFilters{Kind: KindIncome})
	require.NoError(t, err)
	require.Len(t, income, 1)
	require.Equal(t, 2000.0, income[0].Amount)
}

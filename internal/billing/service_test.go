package billing

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fitcore/fitcore/internal/members"
	"github.com/fitcore/fitcore/internal/plans"
	"github.com/fitcore/fitcore/internal/shared"
)

type memoryStore struct {
	members     map[int64]members.Member
	memberships map[int64]Membership
	invoices    map[int64]Invoice
	nextID      int64
	failInvoice bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		members:     make(map[int64]members.Member),
		memberships: make(map[int64]Membership),
		invoices:    make(map[int64]Invoice),
	}
}

func (s *memoryStore) clone() *memoryStore {
	out := newMemoryStore()
	out.nextID = s.nextID
	out.failInvoice = s.failInvoice
	for k, v := range s.members {
		out.members[k] = v
	}
	for k, v := range s.memberships {
		out.memberships[k] = v
	}
	for k, v := range s.invoices {
		out.invoices[k] = v
	}
	return out
}

// WithTx stages writes on a copy and swaps it in on success, so a
// failed callback leaves the store untouched.
func (s *memoryStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	stage := s.clone()
	if err := fn(ctx, stage); err != nil {
		return err
	}
	*s = *stage
	return nil
}

func (s *memoryStore) GetMembership(ctx context.Context, id int64) (Membership, error) {
	m, ok := s.memberships[id]
	if !ok {
		return Membership{}, shared.ErrNotFound
	}
	return m, nil
}

func (s *memoryStore) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	inv, ok := s.invoices[id]
	if !ok {
		return Invoice{}, shared.ErrNotFound
	}
	return inv, nil
}

func (s *memoryStore) GetInvoiceByMembership(ctx context.Context, membershipID int64) (Invoice, error) {
	for _, inv := range s.invoices {
		if inv.MembershipID == membershipID {
			return inv, nil
		}
	}
	return Invoice{}, shared.ErrNotFound
}

func (s *memoryStore) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range s.invoices {
		if req.Status != "" && inv.Status != req.Status {
			continue
		}
		if req.MembershipID > 0 && inv.MembershipID != req.MembershipID {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (s *memoryStore) CreateMember(ctx context.Context, member members.Member) (int64, error) {
	for _, existing := range s.members {
		if existing.Email == member.Email {
			return 0, shared.ErrDuplicate
		}
	}
	s.nextID++
	member.ID = s.nextID
	s.members[member.ID] = member
	return member.ID, nil
}

func (s *memoryStore) CreateMembership(ctx context.Context, m Membership) (int64, error) {
	s.nextID++
	m.ID = s.nextID
	s.memberships[m.ID] = m
	return m.ID, nil
}

func (s *memoryStore) CreateInvoice(ctx context.Context, inv Invoice) (int64, error) {
	if s.failInvoice {
		return 0, errors.New("insert failed")
	}
	s.nextID++
	inv.ID = s.nextID
	s.invoices[inv.ID] = inv
	return inv.ID, nil
}

func (s *memoryStore) UpdateInvoiceStatus(ctx context.Context, id int64, status InvoiceStatus) error {
	inv, ok := s.invoices[id]
	if !ok {
		return shared.ErrNotFound
	}
	inv.Status = status
	s.invoices[id] = inv
	return nil
}

func (s *memoryStore) UpdateMembershipPayment(ctx context.Context, id int64, payment PaymentStatus, status MembershipStatus) error {
	m, ok := s.memberships[id]
	if !ok {
		return shared.ErrNotFound
	}
	m.PaymentStatus = payment
	m.Status = status
	s.memberships[id] = m
	return nil
}

type memoryPlans struct {
	plans map[int64]plans.Plan
}

func (p *memoryPlans) Get(ctx context.Context, id int64) (plans.Plan, error) {
	plan, ok := p.plans[id]
	if !ok {
		return plans.Plan{}, shared.ErrNotFound
	}
	return plan, nil
}

type memoryLedger struct {
	entries int
	fail    bool
}

func (l *memoryLedger) RecordMembershipPayment(ctx context.Context, amount float64, method, reference, notes string, paidAt time.Time) error {
	if l.fail {
		return errors.New("ledger unavailable")
	}
	l.entries++
	return nil
}

type memoryNotifier struct {
	sent []string
}

func (n *memoryNotifier) EnqueueReceiptEmail(ctx context.Context, to, subject, body string) error {
	n.sent = append(n.sent, subject)
	return nil
}

func newTestService(store *memoryStore, ledger *memoryLedger, notifier *memoryNotifier) *Service {
	planStore := &memoryPlans{plans: map[int64]plans.Plan{
		1: {ID: 1, Name: "Quarterly", Price: 4000, DurationMonths: 3, IsActive: true},
		2: {ID: 2, Name: "Retired", Price: 1000, DurationMonths: 1, IsActive: false},
	}}
	var l PaymentLedger
	if ledger != nil {
		l = ledger
	}
	var n Notifier
	if notifier != nil {
		n = notifier
	}
	return NewService(slog.Default(), store, planStore, l, n, Config{GSTRate: 0.18, InvoiceDueDays: 7})
}

func memberForm() members.MemberForm {
	return members.MemberForm{
		BranchID:  1,
		FirstName: "Asha",
		LastName:  "Rao",
		Email:     "asha@example.com",
		Phone:     "9876543210",
	}
}

func TestCreateMembershipWorkflow(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	notifier := &memoryNotifier{}
	svc := newTestService(store, nil, notifier)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	result, err := svc.CreateMembership(ctx, CreateMembershipRequest{
		Member:          memberForm(),
		PlanID:          1,
		StartDate:       start,
		DiscountPercent: fptr(10),
		GSTEnabled:      true,
	}, shared.Identity{UserID: 7})
	require.NoError(t, err)
	require.Equal(t, 4248.0, result.Quote.Total)
	require.NotEqual(t, uuid.Nil, result.MemberPublicID)
	require.Contains(t, result.InvoiceNumber, "INV-")

	member := store.members[result.MemberID]
	require.Equal(t, "asha@example.com", member.Email)
	require.Equal(t, int64(7), member.CreatedBy)

	membership := store.memberships[result.MembershipID]
	require.Equal(t, MembershipActive, membership.Status)
	require.Equal(t, PaymentPending, membership.PaymentStatus)
	require.Equal(t, start.Add(90*24*time.Hour), membership.EndDate)
	require.Equal(t, 4248.0, membership.FinalAmount)

	invoice := store.invoices[result.InvoiceID]
	require.Equal(t, InvoiceDraft, invoice.Status)
	require.Equal(t, 3600.0, invoice.Subtotal)
	require.Equal(t, 648.0, invoice.Tax)
	require.Equal(t, membership.FinalAmount, invoice.Total)
	require.WithinDuration(t, time.Now().Add(7*24*time.Hour), invoice.DueAt, time.Minute)

	require.Len(t, notifier.sent, 1)
}

func TestCreateMembershipPlanNotFound(t *testing.T) {
	svc := newTestService(newMemoryStore(), nil, nil)
	_, err := svc.CreateMembership(context.Background(), CreateMembershipRequest{
		Member: memberForm(),
		PlanID: 99,
	}, shared.Identity{UserID: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateMembershipInactivePlan(t *testing.T) {
	svc := newTestService(newMemoryStore(), nil, nil)
	_, err := svc.CreateMembership(context.Background(), CreateMembershipRequest{
		Member: memberForm(),
		PlanID: 2,
	}, shared.Identity{UserID: 1})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateMembershipRollsBackOnFailure(t *testing.T) {
	store := newMemoryStore()
	store.failInvoice = true
	svc := newTestService(store, nil, nil)

	_, err := svc.CreateMembership(context.Background(), CreateMembershipRequest{
		Member: memberForm(),
		PlanID: 1,
	}, shared.Identity{UserID: 1})
	require.Error(t, err)
	require.Empty(t, store.members)
	require.Empty(t, store.memberships)
	require.Empty(t, store.invoices)
}

func TestCreateMembershipDuplicateEmail(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, nil, nil)

	_, err := svc.CreateMembership(context.Background(), CreateMembershipRequest{
		Member: memberForm(),
		PlanID: 1,
	}, shared.Identity{UserID: 1})
	require.NoError(t, err)

	_, err = svc.CreateMembership(context.Background(), CreateMembershipRequest{
		Member: memberForm(),
		PlanID: 1,
	}, shared.Identity{UserID: 1})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func createTestMembership(t *testing.T, svc *Service, store *memoryStore) CreateMembershipResult {
	t.Helper()
	result, err := svc.CreateMembership(context.Background(), CreateMembershipRequest{
		Member:          memberForm(),
		PlanID:          1,
		DiscountPercent: fptr(10),
		GSTEnabled:      true,
	}, shared.Identity{UserID: 1})
	require.NoError(t, err)
	return result
}

func TestRecordPaymentSettlesInvoice(t *testing.T) {
	store := newMemoryStore()
	ledger := &memoryLedger{}
	svc := newTestService(store, ledger, nil)
	created := createTestMembership(t, svc, store)

	result, err := svc.RecordPayment(context.Background(), created.MembershipID, PaymentRequest{
		InvoiceID: created.InvoiceID,
		Amount:    4248,
		Method:    "upi",
		Reference: "UPI-123",
	})
	require.NoError(t, err)
	require.Equal(t, InvoicePaid, result.InvoiceStatus)
	require.Equal(t, PaymentCompleted, result.PaymentStatus)
	require.Equal(t, 1, ledger.entries)

	membership := store.memberships[created.MembershipID]
	require.Equal(t, PaymentCompleted, membership.PaymentStatus)
	require.Equal(t, MembershipActive, membership.Status)
	require.Equal(t, InvoicePaid, store.invoices[created.InvoiceID].Status)
}

func TestRecordPaymentPartialKeepsPending(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, nil, nil)
	created := createTestMembership(t, svc, store)

	result, err := svc.RecordPayment(context.Background(), created.MembershipID, PaymentRequest{
		InvoiceID: created.InvoiceID,
		Amount:    1000,
		Method:    "cash",
	})
	require.NoError(t, err)
	require.Equal(t, InvoiceSent, result.InvoiceStatus)
	require.Equal(t, PaymentPending, result.PaymentStatus)
}

func TestRecordPaymentZeroAmountFollowsPartialPath(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, nil, nil)
	created := createTestMembership(t, svc, store)

	result, err := svc.RecordPayment(context.Background(), created.MembershipID, PaymentRequest{
		InvoiceID: created.InvoiceID,
		Amount:    0,
		Method:    "cash",
	})
	require.NoError(t, err)
	require.Equal(t, InvoiceSent, result.InvoiceStatus)
	require.Equal(t, PaymentPending, result.PaymentStatus)
}

func TestRecordPaymentAgainstPaidInvoiceRejected(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, nil, nil)
	created := createTestMembership(t, svc, store)

	_, err := svc.RecordPayment(context.Background(), created.MembershipID, PaymentRequest{
		InvoiceID: created.InvoiceID,
		Amount:    4248,
		Method:    "card",
	})
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), created.MembershipID, PaymentRequest{
		InvoiceID: created.InvoiceID,
		Amount:    4248,
		Method:    "card",
	})
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestRecordPaymentLedgerFailureIsNonFatal(t *testing.T) {
	store := newMemoryStore()
	ledger := &memoryLedger{fail: true}
	svc := newTestService(store, ledger, nil)
	created := createTestMembership(t, svc, store)

	result, err := svc.RecordPayment(context.Background(), created.MembershipID, PaymentRequest{
		InvoiceID: created.InvoiceID,
		Amount:    4248,
		Method:    "upi",
	})
	require.NoError(t, err)
	require.Equal(t, InvoicePaid, result.InvoiceStatus)
}

func TestRecordPaymentWrongInvoice(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, nil, nil)
	first := createTestMembership(t, svc, store)

	second, err := svc.CreateMembership(context.Background(), CreateMembershipRequest{
		Member: members.MemberForm{
			BranchID:  1,
			FirstName: "Ravi",
			LastName:  "Iyer",
			Email:     "ravi@example.com",
		},
		PlanID: 1,
	}, shared.Identity{UserID: 1})
	require.NoError(t, err)

	_, err = svc.RecordPayment(context.Background(), first.MembershipID, PaymentRequest{
		InvoiceID: second.InvoiceID,
		Amount:    100,
		Method:    "cash",
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestInvoiceNumberFormat(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	id := uuid.MustParse("11111111-2222-3333-4444-555566667777")
	number := InvoiceNumber(at, id)
	require.Equal(t, "INV-1772359200-7777", number)
}

func TestGetMembershipReturnsInvoice(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, nil, nil)
	created := createTestMembership(t, svc, store)

	membership, invoice, err := svc.GetMembership(context.Background(), created.MembershipID)
	require.NoError(t, err)
	require.Equal(t, created.MembershipID, membership.ID)
	require.Equal(t, created.InvoiceID, invoice.ID)
}

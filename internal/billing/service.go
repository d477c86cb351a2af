package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fitcore/fitcore/internal/members"
	"github.com/fitcore/fitcore/internal/plans"
	"github.com/fitcore/fitcore/internal/shared"
)

// PlanStore fetches plan reference data.
type PlanStore interface {
	Get(ctx context.Context, id int64) (plans.Plan, error)
}

// PaymentLedger appends income entries for recorded payments. A failed
// append is logged by the service, never propagated.
type PaymentLedger interface {
	RecordMembershipPayment(ctx context.Context, amount float64, method, reference, notes string, paidAt time.Time) error
}

// Notifier enqueues receipt emails after billing events.
type Notifier interface {
	EnqueueReceiptEmail(ctx context.Context, to, subject, body string) error
}

// Config carries billing tunables sourced from the environment.
type Config struct {
	GSTRate        float64
	InvoiceDueDays int
}

// Service orchestrates the membership purchase and payment flows.
type Service struct {
	logger   *slog.Logger
	store    Store
	plans    PlanStore
	ledger   PaymentLedger
	notifier Notifier
	cfg      Config
}

// NewService builds a Service instance. Ledger and notifier are
// optional.
func NewService(logger *slog.Logger, store Store, plans PlanStore, ledger PaymentLedger, notifier Notifier, cfg Config) *Service {
	return &Service{logger: logger, store: store, plans: plans, ledger: ledger, notifier: notifier, cfg: cfg}
}

// CreateMembershipRequest is the purchase payload: the member to
// onboard, the plan to buy and the pricing options.
type CreateMembershipRequest struct {
	Member          members.MemberForm `json:"member"`
	PlanID          int64              `json:"plan_id" validate:"required,gt=0"`
	StartDate       time.Time          `json:"start_date"`
	DiscountPercent *float64           `json:"discount_percent"`
	DiscountAmount  *float64           `json:"discount_amount"`
	GSTEnabled      bool               `json:"gst_enabled"`
}

// CreateMembershipResult identifies the rows created by the workflow.
type CreateMembershipResult struct {
	MemberID       int64     `json:"member_id"`
	MemberPublicID uuid.UUID `json:"member_public_id"`
	MembershipID   int64     `json:"membership_id"`
	InvoiceID      int64     `json:"invoice_id"`
	InvoiceNumber  string    `json:"invoice_number"`
	Quote          Quote     `json:"quote"`
}

// CreateMembership runs the full purchase workflow in one transaction:
// insert the member, price the plan, insert the membership and generate
// its invoice. Any failure rolls the whole sequence back.
func (s *Service) CreateMembership(ctx context.Context, req CreateMembershipRequest, identity shared.Identity) (CreateMembershipResult, error) {
	plan, err := s.plans.Get(ctx, req.PlanID)
	if err != nil {
		return CreateMembershipResult{}, err
	}
	if !plan.IsActive {
		return CreateMembershipResult{}, fmt.Errorf("%w: plan is not active", shared.ErrValidation)
	}

	quote, err := ComputeQuote(PricingInput{
		Price:           plan.Price,
		DiscountPercent: req.DiscountPercent,
		DiscountAmount:  req.DiscountAmount,
		GSTEnabled:      req.GSTEnabled,
		GSTRate:         s.cfg.GSTRate,
	})
	if err != nil {
		return CreateMembershipResult{}, err
	}

	now := time.Now()
	start := req.StartDate
	if start.IsZero() {
		start = now
	}
	end := start.Add(time.Duration(plan.DurationMonths) * 30 * 24 * time.Hour)

	member := members.Member{
		PublicID:  uuid.New(),
		BranchID:  req.Member.BranchID,
		FirstName: req.Member.FirstName,
		LastName:  req.Member.LastName,
		Email:     req.Member.Email,
		Phone:     req.Member.Phone,
		Address:   req.Member.Address,
		City:      req.Member.City,
		CreatedBy: identity.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	result := CreateMembershipResult{
		MemberPublicID: member.PublicID,
		InvoiceNumber:  InvoiceNumber(now, member.PublicID),
		Quote:          quote,
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		memberID, err := tx.CreateMember(ctx, member)
		if err != nil {
			return err
		}
		result.MemberID = memberID

		membership := Membership{
			MemberID:      memberID,
			PlanID:        plan.ID,
			StartDate:     start,
			EndDate:       end,
			Status:        MembershipActive,
			PaymentStatus: PaymentPending,
			GSTEnabled:    req.GSTEnabled,
			GSTAmount:     quote.GST,
			FinalAmount:   quote.Total,
			CreatedBy:     identity.UserID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if req.DiscountPercent != nil {
			membership.DiscountPercent = *req.DiscountPercent
		}
		if req.DiscountAmount != nil {
			membership.DiscountAmount = *req.DiscountAmount
		}
		membershipID, err := tx.CreateMembership(ctx, membership)
		if err != nil {
			return err
		}
		result.MembershipID = membershipID

		invoiceID, err := tx.CreateInvoice(ctx, Invoice{
			Number:       result.InvoiceNumber,
			MembershipID: membershipID,
			Subtotal:     quote.Subtotal,
			Discount:     quote.Discount,
			Tax:          quote.GST,
			Total:        quote.Total,
			Status:       InvoiceDraft,
			DueAt:        now.Add(time.Duration(s.cfg.InvoiceDueDays) * 24 * time.Hour),
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return err
		}
		result.InvoiceID = invoiceID
		return nil
	})
	if err != nil {
		return CreateMembershipResult{}, err
	}

	if s.notifier != nil {
		subject := "Welcome to the gym — invoice " + result.InvoiceNumber
		body := fmt.Sprintf("Hi %s, your membership is active. Amount due: %.2f.", member.FirstName, quote.Total)
		if err := s.notifier.EnqueueReceiptEmail(ctx, member.Email, subject, body); err != nil {
			s.logger.Warn("enqueue receipt email", slog.Any("error", err))
		}
	}

	return result, nil
}

// PaymentRequest records money received against an invoice.
type PaymentRequest struct {
	InvoiceID int64     `json:"invoice_id" validate:"required,gt=0"`
	Amount    float64   `json:"amount" validate:"gte=0"`
	Method    string    `json:"method" validate:"required"`
	Reference string    `json:"reference"`
	Notes     string    `json:"notes"`
	PaidAt    time.Time `json:"paid_at"`
}

// PaymentResult reports the statuses after reconciliation.
type PaymentResult struct {
	InvoiceStatus InvoiceStatus `json:"invoice_status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
}

// RecordPayment appends a ledger entry (best-effort) and reconciles the
// invoice and membership statuses in one transaction. A payment below
// the invoice total keeps the membership pending and moves the invoice
// to sent; settled or cancelled invoices reject further payments.
func (s *Service) RecordPayment(ctx context.Context, membershipID int64, req PaymentRequest) (PaymentResult, error) {
	membership, err := s.store.GetMembership(ctx, membershipID)
	if err != nil {
		return PaymentResult{}, err
	}
	invoice, err := s.store.GetInvoice(ctx, req.InvoiceID)
	if err != nil {
		return PaymentResult{}, err
	}
	if invoice.MembershipID != membership.ID {
		return PaymentResult{}, fmt.Errorf("%w: invoice does not belong to membership", shared.ErrValidation)
	}

	paidAt := req.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	next := InvoiceSent
	paymentStatus := PaymentPending
	if req.Amount >= invoice.Total {
		next = InvoicePaid
		paymentStatus = PaymentCompleted
	}
	if err := checkInvoiceTransition(invoice.Status, next); err != nil {
		return PaymentResult{}, err
	}

	if s.ledger != nil {
		if err := s.ledger.RecordMembershipPayment(ctx, req.Amount, req.Method, req.Reference, req.Notes, paidAt); err != nil {
			s.logger.Warn("record payment ledger entry", slog.Any("error", err), slog.Int64("invoice_id", invoice.ID))
		}
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateInvoiceStatus(ctx, invoice.ID, next); err != nil {
			return err
		}
		return tx.UpdateMembershipPayment(ctx, membership.ID, paymentStatus, MembershipActive)
	})
	if err != nil {
		return PaymentResult{}, err
	}

	if s.notifier != nil && paymentStatus == PaymentCompleted {
		body := fmt.Sprintf("Payment of %.2f received for invoice %s.", req.Amount, invoice.Number)
		if err := s.notifier.EnqueueReceiptEmail(ctx, "", "Payment received — "+invoice.Number, body); err != nil {
			s.logger.Warn("enqueue receipt email", slog.Any("error", err))
		}
	}

	return PaymentResult{InvoiceStatus: next, PaymentStatus: paymentStatus}, nil
}

// GetMembership loads a membership together with its invoice.
func (s *Service) GetMembership(ctx context.Context, id int64) (Membership, Invoice, error) {
	if id <= 0 {
		return Membership{}, Invoice{}, fmt.Errorf("%w: invalid membership ID", shared.ErrValidation)
	}
	membership, err := s.store.GetMembership(ctx, id)
	if err != nil {
		return Membership{}, Invoice{}, err
	}
	invoice, err := s.store.GetInvoiceByMembership(ctx, id)
	if err != nil {
		return Membership{}, Invoice{}, err
	}
	return membership, invoice, nil
}

// GetInvoice loads a single invoice.
func (s *Service) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	if id <= 0 {
		return Invoice{}, fmt.Errorf("%w: invalid invoice ID", shared.ErrValidation)
	}
	return s.store.GetInvoice(ctx, id)
}

// ListInvoices returns invoices narrowed by the request.
func (s *Service) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	if req.Limit <= 0 || req.Limit > 200 {
		req.Limit = 50
	}
	return s.store.ListInvoices(ctx, req)
}

// Package billing implements the membership purchase workflow: pricing,
// membership and invoice creation, and payment recording.
package billing

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// MembershipStatus enumerates membership lifecycle states.
type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "active"
	MembershipExpired   MembershipStatus = "expired"
	MembershipCancelled MembershipStatus = "cancelled"
)

// PaymentStatus enumerates membership payment states.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

// InvoiceStatus enumerates invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// Membership links a member to a purchased plan instance.
type Membership struct {
	ID              int64            `json:"id"`
	MemberID        int64            `json:"member_id"`
	PlanID          int64            `json:"plan_id"`
	StartDate       time.Time        `json:"start_date"`
	EndDate         time.Time        `json:"end_date"`
	Status          MembershipStatus `json:"status"`
	PaymentStatus   PaymentStatus    `json:"payment_status"`
	DiscountPercent float64          `json:"discount_percent"`
	DiscountAmount  float64          `json:"discount_amount"`
	GSTEnabled      bool             `json:"gst_enabled"`
	GSTAmount       float64          `json:"gst_amount"`
	FinalAmount     float64          `json:"final_amount"`
	CreatedBy       int64            `json:"created_by"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Invoice is the billing document generated 1:1 with a membership.
type Invoice struct {
	ID           int64         `json:"id"`
	Number       string        `json:"number"`
	MembershipID int64         `json:"membership_id"`
	Subtotal     float64       `json:"subtotal"`
	Discount     float64       `json:"discount"`
	Tax          float64       `json:"tax"`
	Total        float64       `json:"total"`
	Status       InvoiceStatus `json:"status"`
	DueAt        time.Time     `json:"due_at"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// InvoiceNumber builds the unique invoice identifier from the creation
// instant and the tail of the member's public id.
func InvoiceNumber(at time.Time, memberPublicID uuid.UUID) string {
	id := memberPublicID.String()
	return "INV-" + strconv.FormatInt(at.Unix(), 10) + "-" + id[len(id)-4:]
}

// ListInvoicesRequest narrows invoice listings.
type ListInvoicesRequest struct {
	Status       InvoiceStatus
	MembershipID int64
	Limit        int
}

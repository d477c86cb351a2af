package billing

import (
	"fmt"

	"github.com/fitcore/fitcore/internal/shared"
)

// invoiceTransitions is the explicit transition table for invoice
// statuses. Paid and cancelled are terminal; sent->sent covers repeated
// partial payments.
var invoiceTransitions = map[InvoiceStatus]map[InvoiceStatus]bool{
	InvoiceDraft: {
		InvoiceSent:      true,
		InvoicePaid:      true,
		InvoiceCancelled: true,
	},
	InvoiceSent: {
		InvoiceSent:      true,
		InvoicePaid:      true,
		InvoiceOverdue:   true,
		InvoiceCancelled: true,
	},
	InvoiceOverdue: {
		InvoiceSent:      true,
		InvoicePaid:      true,
		InvoiceCancelled: true,
	},
	InvoicePaid:      {},
	InvoiceCancelled: {},
}

// CanTransitionInvoice reports whether an invoice may move between the
// two statuses.
func CanTransitionInvoice(from, to InvoiceStatus) bool {
	allowed, ok := invoiceTransitions[from]
	if !ok {
		return false
	}
	return allowed[to]
}

// checkInvoiceTransition returns a typed error for a disallowed move.
func checkInvoiceTransition(from, to InvoiceStatus) error {
	if !CanTransitionInvoice(from, to) {
		return fmt.Errorf("%w: invoice %s -> %s", shared.ErrInvalidTransition, from, to)
	}
	return nil
}

// membershipTransitions guards membership status changes.
var membershipTransitions = map[MembershipStatus]map[MembershipStatus]bool{
	MembershipActive: {
		MembershipActive:    true,
		MembershipExpired:   true,
		MembershipCancelled: true,
	},
	MembershipExpired: {
		MembershipActive: true,
	},
	MembershipCancelled: {},
}

// CanTransitionMembership reports whether a membership may move between
// the two statuses.
func CanTransitionMembership(from, to MembershipStatus) bool {
	allowed, ok := membershipTransitions[from]
	if !ok {
		return false
	}
	return allowed[to]
}

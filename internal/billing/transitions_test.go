package billing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fitcore/fitcore/internal/shared"
)

func TestInvoiceTransitions(t *testing.T) {
	allowed := []struct{ from, to InvoiceStatus }{
		{InvoiceDraft, InvoiceSent},
		{InvoiceDraft, InvoicePaid},
		{InvoiceDraft, InvoiceCancelled},
		{InvoiceSent, InvoiceSent},
		{InvoiceSent, InvoicePaid},
		{InvoiceSent, InvoiceOverdue},
		{InvoiceOverdue, InvoicePaid},
		{InvoiceOverdue, InvoiceCancelled},
	}
	for _, tc := range allowed {
		require.True(t, CanTransitionInvoice(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct{ from, to InvoiceStatus }{
		{InvoicePaid, InvoicePaid},
		{InvoicePaid, InvoiceSent},
		{InvoicePaid, InvoiceCancelled},
		{InvoiceCancelled, InvoicePaid},
		{InvoiceCancelled, InvoiceSent},
		{InvoiceDraft, InvoiceOverdue},
	}
	for _, tc := range denied {
		require.False(t, CanTransitionInvoice(tc.from, tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}
}

func TestCheckInvoiceTransitionError(t *testing.T) {
	err := checkInvoiceTransition(InvoicePaid, InvoicePaid)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
	require.NoError(t, checkInvoiceTransition(InvoiceDraft, InvoicePaid))
}

func TestMembershipTransitions(t *testing.T) {
	require.True(t, CanTransitionMembership(MembershipActive, MembershipExpired))
	require.True(t, CanTransitionMembership(MembershipActive, MembershipCancelled))
	require.True(t, CanTransitionMembership(MembershipExpired, MembershipActive))
	require.False(t, CanTransitionMembership(MembershipCancelled, MembershipActive))
	require.False(t, CanTransitionMembership(MembershipExpired, MembershipCancelled))
}

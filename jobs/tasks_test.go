package jobs

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type fakeScanner struct {
	expired int64
	overdue int64
	err     error
}

func (f *fakeScanner) ExpireMemberships(ctx context.Context, now time.Time) (int64, error) {
	return f.expired, f.err
}

func (f *fakeScanner) MarkOverdueInvoices(ctx context.Context, now time.Time) (int64, error) {
	return f.overdue, f.err
}

func TestReceiptEmailTaskRoundTrip(t *testing.T) {
	task, err := NewReceiptEmailTask(ReceiptEmailPayload{
		To:      "jordan@example.com",
		Subject: "Payment received",
		Body:    "Thanks for your payment.",
	})
	require.NoError(t, err)
	require.Equal(t, TaskTypeReceiptEmail, task.Type())

	handler := HandleReceiptEmailTask(slog.Default())
	require.NoError(t, handler(context.Background(), task))
}

func TestReceiptEmailTaskSkipsRetryOnBadPayload(t *testing.T) {
	handler := HandleReceiptEmailTask(slog.Default())
	err := handler(context.Background(), asynq.NewTask(TaskTypeReceiptEmail, []byte("not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestMembershipExpiryTaskRunsScan(t *testing.T) {
	scanner := &fakeScanner{expired: 3}
	handler := HandleMembershipExpiryTask(scanner, slog.Default())
	require.NoError(t, handler(context.Background(), NewMembershipExpiryTask()))
}

func TestInvoiceOverdueTaskPropagatesError(t *testing.T) {
	scanner := &fakeScanner{err: context.DeadlineExceeded}
	handler := HandleInvoiceOverdueTask(scanner, slog.Default())
	err := handler(context.Background(), NewInvoiceOverdueTask())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

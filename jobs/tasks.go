// Package jobs wires background processing: the Asynq worker, the
// enqueue client, and the scheduled scans that move memberships and
// invoices through their lifecycles.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeReceiptEmail sends a billing receipt email.
	TaskTypeReceiptEmail = "receipt:email"
	// TaskTypeMembershipExpiry expires memberships past their end date.
	TaskTypeMembershipExpiry = "membership:expiry-scan"
	// TaskTypeInvoiceOverdue marks sent invoices past due as overdue.
	TaskTypeInvoiceOverdue = "invoice:overdue-scan"
)

// ReceiptEmailPayload describes the information required to send a receipt.
type ReceiptEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewReceiptEmailTask constructs an Asynq task.
func NewReceiptEmailTask(payload ReceiptEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeReceiptEmail, data), nil
}

// NewMembershipExpiryTask constructs the daily membership expiry scan task.
func NewMembershipExpiryTask() *asynq.Task {
	return asynq.NewTask(TaskTypeMembershipExpiry, nil)
}

// NewInvoiceOverdueTask constructs the daily invoice overdue scan task.
func NewInvoiceOverdueTask() *asynq.Task {
	return asynq.NewTask(TaskTypeInvoiceOverdue, nil)
}

// HandleReceiptEmailTask processes TaskTypeReceiptEmail tasks.
func HandleReceiptEmailTask(logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReceiptEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		// TODO: deliver through SMTP once the mail relay is provisioned.
		logger.Info("receipt email",
			slog.String("to", payload.To),
			slog.String("subject", payload.Subject))
		return nil
	}
}

// LifecycleScanner runs the bulk status updates behind the scheduled
// scans. Satisfied by the billing repository.
type LifecycleScanner interface {
	ExpireMemberships(ctx context.Context, now time.Time) (int64, error)
	MarkOverdueInvoices(ctx context.Context, now time.Time) (int64, error)
}

// HandleMembershipExpiryTask processes TaskTypeMembershipExpiry tasks.
func HandleMembershipExpiryTask(scanner LifecycleScanner, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		n, err := scanner.ExpireMemberships(ctx, time.Now())
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("memberships expired", slog.Int64("count", n))
		}
		return nil
	}
}

// HandleInvoiceOverdueTask processes TaskTypeInvoiceOverdue tasks.
func HandleInvoiceOverdueTask(scanner LifecycleScanner, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		n, err := scanner.MarkOverdueInvoices(ctx, time.Now())
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("invoices marked overdue", slog.Int64("count", n))
		}
		return nil
	}
}

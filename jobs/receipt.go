package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-shop/internal/jobs"
)

// ReceiptMailer delivers a purchase receipt to the buyer.
type ReceiptMailer interface {
	SendReceipt(ctx context.Context, payload PurchaseReceiptPayload) error
}

// LogMailer writes receipts to the log instead of sending mail.
type LogMailer struct {
	Logger *slog.Logger
}

// SendReceipt logs the receipt summary.
func (m LogMailer) SendReceipt(_ context.Context, payload PurchaseReceiptPayload) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("purchase receipt",
		slog.String("user_id", payload.UserID),
		slog.String("email", payload.Email),
		slog.Int("items", len(payload.Items)),
		slog.String("total", fmt.Sprintf("%.2f", payload.Total)),
	)
	return nil
}

// PurchaseReceiptJob handles TaskTypePurchaseReceipt tasks.
type PurchaseReceiptJob struct {
	Mailer  ReceiptMailer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewPurchaseReceiptJob wires dependencies for the receipt handler.
func NewPurchaseReceiptJob(mailer ReceiptMailer, logger *slog.Logger, metrics *jobmetrics.Metrics) *PurchaseReceiptJob {
	if logger == nil {
		logger = slog.Default()
	}
	if mailer == nil {
		mailer = LogMailer{Logger: logger}
	}
	return &PurchaseReceiptJob{Mailer: mailer, Logger: logger, Metrics: metrics}
}

// Handle processes one receipt task.
func (j *PurchaseReceiptJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("purchase receipt: handler not configured")
	}
	var payload PurchaseReceiptPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		j.Logger.Warn("drop malformed receipt task", slog.Any("error", err))
		return fmt.Errorf("purchase receipt: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.UserID == "" || len(payload.Items) == 0 {
		return fmt.Errorf("purchase receipt: empty receipt: %w", asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskTypePurchaseReceipt)
	if err := j.Mailer.SendReceipt(ctx, payload); err != nil {
		j.Logger.Error("send receipt", slog.String("user_id", payload.UserID), slog.Any("error", err))
		return tracker.End(err)
	}
	j.Metrics.AddRevenue(payload.Total)
	return tracker.End(nil)
}

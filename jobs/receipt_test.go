package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/odyssey-shop/internal/jobs"
)

type recordingMailer struct {
	sent []PurchaseReceiptPayload
	err  error
}

func (m *recordingMailer) SendReceipt(_ context.Context, payload PurchaseReceiptPayload) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, payload)
	return nil
}

func receiptPayload() PurchaseReceiptPayload {
	return PurchaseReceiptPayload{
		UserID: "user-1",
		Email:  "ana@x.io",
		Items:  []ReceiptItem{{ProductID: "p1", Title: "Dune", Price: 12.5}},
		Total:  12.5,
		Date:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestNewPurchaseReceiptTaskEncodesPayload(t *testing.T) {
	task, err := NewPurchaseReceiptTask(receiptPayload())
	require.NoError(t, err)
	assert.Equal(t, TaskTypePurchaseReceipt, task.Type())

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, "user-1", decoded["user_id"])
	assert.Equal(t, 12.5, decoded["total"])
	assert.Len(t, decoded["items"], 1)
}

func TestPurchaseReceiptJobSendsReceipt(t *testing.T) {
	mailer := &recordingMailer{}
	job := NewPurchaseReceiptJob(mailer, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewPurchaseReceiptTask(receiptPayload())
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ana@x.io", mailer.sent[0].Email)
}

func TestPurchaseReceiptJobSkipsMalformedPayload(t *testing.T) {
	job := NewPurchaseReceiptJob(&recordingMailer{}, nil, nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskTypePurchaseReceipt, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	empty, err := json.Marshal(PurchaseReceiptPayload{UserID: "user-1"})
	require.NoError(t, err)
	err = job.Handle(context.Background(), asynq.NewTask(TaskTypePurchaseReceipt, empty))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestPurchaseReceiptJobReturnsMailerError(t *testing.T) {
	failure := errors.New("smtp down")
	job := NewPurchaseReceiptJob(&recordingMailer{err: failure}, nil, nil)
	task, err := NewPurchaseReceiptTask(receiptPayload())
	require.NoError(t, err)

	assert.ErrorIs(t, job.Handle(context.Background(), task), failure)
}

func TestLogMailerNeverFails(t *testing.T) {
	assert.NoError(t, LogMailer{}.SendReceipt(context.Background(), receiptPayload()))
}

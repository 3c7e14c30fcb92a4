package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypePurchaseReceipt is emitted once a purchase batch commits.
	TaskTypePurchaseReceipt = "purchase:receipt"
)

// ReceiptItem is one purchased product.
type ReceiptItem struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
}

// PurchaseReceiptPayload describes a committed purchase batch.
type PurchaseReceiptPayload struct {
	UserID string        `json:"user_id"`
	Email  string        `json:"email"`
	Items  []ReceiptItem `json:"items"`
	Total  float64       `json:"total"`
	Date   time.Time     `json:"date"`
}

// NewPurchaseReceiptTask constructs an Asynq task.
func NewPurchaseReceiptTask(payload PurchaseReceiptPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePurchaseReceipt, data, asynq.MaxRetry(5)), nil
}

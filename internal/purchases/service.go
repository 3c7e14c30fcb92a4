package purchases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-shop/internal/auth"
	"github.com/odyssey-erp/odyssey-shop/internal/catalog"
	"github.com/odyssey-erp/odyssey-shop/internal/shared"
	"github.com/odyssey-erp/odyssey-shop/jobs"
)

var (
	errProductsRequired = shared.NewPublicError(shared.ErrValidation, "productIds is required")
	errUserNotFound     = shared.NewPublicError(shared.ErrNotFound, "User not found")
	errRecordNotFound   = shared.NewPublicError(shared.ErrNotFound, "Buying record not found")
	errOtherUser        = shared.NewPublicError(shared.ErrForbidden, "You do not have permission to record purchases for another user!")
)

// UserLookup resolves buyers.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*auth.User, error)
}

// ProductLookup resolves purchased products.
type ProductLookup interface {
	Get(ctx context.Context, id string) (catalog.Product, error)
}

// ReceiptEnqueuer schedules receipt delivery after a batch commits.
type ReceiptEnqueuer interface {
	EnqueuePurchaseReceipt(ctx context.Context, payload jobs.PurchaseReceiptPayload) error
}

// Service implements the purchase ledger.
type Service struct {
	repo     Repository
	users    UserLookup
	products ProductLookup
	receipts ReceiptEnqueuer
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a Service. receipts may be nil.
func NewService(repo Repository, users UserLookup, products ProductLookup, receipts ReceiptEnqueuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		users:    users,
		products: products,
		receipts: receipts,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create records one ledger entry per product. Every reference is checked
// before anything is written and the batch is stored atomically.
func (s *Service) Create(ctx context.Context, caller shared.Principal, in CreateInput) ([]Record, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		userID = caller.UserID
	}
	if userID != caller.UserID && !caller.IsAdmin {
		return nil, errOtherUser
	}
	if len(in.ProductIDs) == 0 {
		return nil, errProductsRequired
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errUserNotFound
		}
		return nil, fmt.Errorf("purchases: load user: %w", err)
	}

	items := make([]jobs.ReceiptItem, 0, len(in.ProductIDs))
	var total float64
	for _, id := range in.ProductIDs {
		product, err := s.products.Get(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewPublicError(shared.ErrNotFound, fmt.Sprintf("Product with ID %s not found", id))
			}
			return nil, fmt.Errorf("purchases: load product: %w", err)
		}
		items = append(items, jobs.ReceiptItem{ProductID: product.ID, Title: product.Title, Price: product.Price})
		total += product.Price
	}

	date := in.Date
	if date.IsZero() {
		date = s.now()
	}
	records := make([]Record, len(in.ProductIDs))
	for i, id := range in.ProductIDs {
		records[i] = Record{ProductID: id, UserID: user.ID, Date: date}
	}
	created, err := s.repo.CreateBatch(ctx, strings.TrimSpace(in.IdempotencyKey), records)
	if err != nil {
		return nil, err
	}

	s.enqueueReceipt(ctx, jobs.PurchaseReceiptPayload{
		UserID: user.ID,
		Email:  user.Email,
		Items:  items,
		Total:  total,
		Date:   date,
	})
	return created, nil
}

func (s *Service) enqueueReceipt(ctx context.Context, payload jobs.PurchaseReceiptPayload) {
	if s.receipts == nil {
		return
	}
	if err := s.receipts.EnqueuePurchaseReceipt(ctx, payload); err != nil {
		s.logger.Warn("enqueue purchase receipt", slog.String("user_id", payload.UserID), slog.Any("error", err))
	}
}

// List returns every ledger entry joined with buyer and product details.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	return s.repo.List(ctx)
}

// PruneIdempotencyKeys drops keys older than olderThan.
func (s *Service) PruneIdempotencyKeys(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.repo.PruneIdempotencyKeys(ctx, olderThan)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return errRecordNotFound
		}
		return err
	}
	return nil
}

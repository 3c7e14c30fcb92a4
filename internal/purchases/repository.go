package purchases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-shop/internal/platform/db"
	"github.com/odyssey-erp/odyssey-shop/internal/shared"
)

const idempotencyModule = "purchases"

var errDuplicateRequest = shared.NewPublicError(shared.ErrConflict, "This purchase request was already processed")

// Repository persists purchase records.
type Repository interface {
	// CreateBatch stores records atomically. A non-empty key is claimed in the
	// same transaction; reusing it fails with a conflict.
	CreateBatch(ctx context.Context, key string, records []Record) ([]Record, error)
	List(ctx context.Context) ([]Entry, error)
	Delete(ctx context.Context, id string) error
	PruneIdempotencyKeys(ctx context.Context, olderThan time.Duration) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a PostgreSQL backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// CreateBatch inserts every record in one transaction.
func (r *repository) CreateBatch(ctx context.Context, key string, records []Record) ([]Record, error) {
	out := make([]Record, len(records))
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if key != "" {
			_, err := tx.Exec(ctx, `INSERT INTO idempotency_keys (key, module, created_at) VALUES ($1, $2, now())`, key, idempotencyModule)
			if db.IsUniqueViolation(err) {
				return errDuplicateRequest
			}
			if err != nil {
				return fmt.Errorf("purchases: claim idempotency key: %w", err)
			}
		}
		batch := &pgx.Batch{}
		for i, rec := range records {
			rec.ID = uuid.NewString()
			out[i] = rec
			batch.Queue(`INSERT INTO purchases (id, product_id, user_id, date) VALUES ($1, $2, $3, $4)`,
				rec.ID, rec.ProductID, rec.UserID, rec.Date)
		}
		results := tx.SendBatch(ctx, batch)
		for range records {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("purchases: insert: %w", err)
			}
		}
		return results.Close()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) List(ctx context.Context) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.id, COALESCE(u.email, $1), pr.price::float8, COALESCE(pr.title, $1), p.date
		FROM purchases p
		LEFT JOIN users u ON u.id = p.user_id
		LEFT JOIN products pr ON pr.id = p.product_id
		ORDER BY p.date DESC`, Missing)
	if err != nil {
		return nil, fmt.Errorf("purchases: list: %w", err)
	}
	defer rows.Close()
	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserEmail, &e.Price, &e.Title, &e.Date); err != nil {
			return nil, fmt.Errorf("purchases: scan: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return shared.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM purchases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("purchases: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// PruneIdempotencyKeys removes claimed keys older than the retention window.
func (r *repository) PruneIdempotencyKeys(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE module = $1 AND created_at < $2`,
		idempotencyModule, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("purchases: prune idempotency keys: %w", err)
	}
	return tag.RowsAffected(), nil
}

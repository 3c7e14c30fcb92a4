package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-shop/internal/shared"
)

// Repository persists products.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	ListByCategory(ctx context.Context, category string) ([]Product, error)
	Search(ctx context.Context, query string) ([]Product, error)
	GroupByCategory(ctx context.Context, perGroup int) ([]CategoryGroup, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, product Product) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a PostgreSQL backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const productColumns = `id, title, category, description, price, product_image, COALESCE(author_id::text, ''), created_at, updated_at`

func (r *repository) List(ctx context.Context) ([]Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
}

func (r *repository) Get(ctx context.Context, id string) (Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Product{}, shared.ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	return p, err
}

func (r *repository) ListByCategory(ctx context.Context, category string) ([]Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products WHERE category = $1 ORDER BY created_at DESC`, category)
}

func (r *repository) Search(ctx context.Context, query string) ([]Product, error) {
	pattern := "%" + escapeLike(query) + "%"
	return r.query(ctx, `SELECT `+productColumns+` FROM products
		WHERE title ILIKE $1 OR description ILIKE $1 OR category ILIKE $1
		ORDER BY created_at DESC`, pattern)
}

func (r *repository) GroupByCategory(ctx context.Context, perGroup int) ([]CategoryGroup, error) {
	products, err := r.query(ctx, `SELECT `+productColumns+` FROM (
			SELECT *, row_number() OVER (PARTITION BY category ORDER BY created_at) AS rn FROM products
		) ranked
		WHERE rn <= $1
		ORDER BY category, created_at`, perGroup)
	if err != nil {
		return nil, err
	}
	groups := make([]CategoryGroup, 0)
	for _, p := range products {
		if n := len(groups); n > 0 && groups[n-1].Category == p.Category {
			groups[n-1].Products = append(groups[n-1].Products, p)
			continue
		}
		groups = append(groups, CategoryGroup{Category: p.Category, Products: []Product{p}})
	}
	return groups, nil
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	now := time.Now().UTC()
	product.ID = uuid.NewString()
	product.CreatedAt = now
	product.UpdatedAt = now
	var author any
	if product.AuthorID != "" {
		author = product.AuthorID
	}
	_, err := r.db.Exec(ctx, `INSERT INTO products (id, title, category, description, price, product_image, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		product.ID, product.Title, product.Category, product.Description, product.Price, product.ProductImage, author, now)
	if err != nil {
		return Product{}, fmt.Errorf("catalog: create product: %w", err)
	}
	return product, nil
}

func (r *repository) Update(ctx context.Context, product Product) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET title = $1, category = $2, description = $3, price = $4, product_image = $5, updated_at = $6 WHERE id = $7`,
		product.Title, product.Category, product.Description, product.Price, product.ProductImage, time.Now().UTC(), product.ID)
	if err != nil {
		return fmt.Errorf("catalog: update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return shared.ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("catalog: delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) query(ctx context.Context, sql string, args ...any) ([]Product, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: query products: %w", err)
	}
	defer rows.Close()
	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var id uuid.UUID
	err := row.Scan(&id, &p.Title, &p.Category, &p.Description, &p.Price, &p.ProductImage, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	p.ID = id.String()
	return p, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

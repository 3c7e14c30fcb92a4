package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/odyssey-erp/odyssey-shop/internal/shared"
)

var (
	errFieldsRequired = shared.NewPublicError(shared.ErrValidation, "All fields are required")
	errBadPrice       = shared.NewPublicError(shared.ErrValidation, "Price must be a positive number")
	errQueryRequired  = shared.NewPublicError(shared.ErrValidation, "Query parameter is required")
	errNotFound       = shared.NewPublicError(shared.ErrNotFound, "Product not found!")
)

var categoryCaser = cases.Lower(language.Und)

// Service implements catalog use cases.
type Service struct {
	repo   Repository
	images ImageOptimizer
	cache  *Cache
	logger *slog.Logger
}

// NewService builds a Service. cache may be nil.
func NewService(repo Repository, images ImageOptimizer, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, images: images, cache: cache, logger: logger}
}

// NormalizeCategory folds category labels so grouping is case-insensitive.
func NormalizeCategory(category string) string {
	return categoryCaser.String(strings.TrimSpace(category))
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	p, err := s.repo.Get(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return Product{}, errNotFound
	}
	return p, err
}

func (s *Service) ListByCategory(ctx context.Context, category string) ([]Product, error) {
	return s.repo.ListByCategory(ctx, NormalizeCategory(category))
}

// Search matches q case-insensitively against title, description and category.
func (s *Service) Search(ctx context.Context, q string) ([]Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, errQueryRequired
	}
	return s.repo.Search(ctx, q)
}

// Grouped returns up to GroupLimit products per category, served from cache
// when possible.
func (s *Service) Grouped(ctx context.Context) ([]CategoryGroup, error) {
	key, err := s.cache.BuildKey(ctx, "bycategory")
	if err != nil {
		s.logger.Warn("catalog cache key", slog.Any("error", err))
		return s.repo.GroupByCategory(ctx, GroupLimit)
	}
	var groups []CategoryGroup
	err = s.cache.FetchJSON(ctx, key, &groups, func(ctx context.Context) (any, error) {
		return s.repo.GroupByCategory(ctx, GroupLimit)
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// Create validates the input, optimises the image and stores the product.
func (s *Service) Create(ctx context.Context, in CreateInput, image io.Reader) (Product, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = NormalizeCategory(in.Category)
	if in.Title == "" || in.Category == "" || in.Description == "" || image == nil {
		return Product{}, errFieldsRequired
	}
	if !validPrice(in.Price) {
		return Product{}, errBadPrice
	}
	uri, err := s.images.Optimize(image)
	if err != nil {
		return Product{}, err
	}
	created, err := s.repo.Create(ctx, Product{
		Title:        in.Title,
		Category:     in.Category,
		Description:  in.Description,
		Price:        in.Price,
		ProductImage: uri,
		AuthorID:     in.AuthorID,
	})
	if err != nil {
		return Product{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

// Update applies a partial update. image may be nil.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput, image io.Reader) (Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) != "" {
		product.Title = strings.TrimSpace(*in.Title)
	}
	if in.Category != nil && NormalizeCategory(*in.Category) != "" {
		product.Category = NormalizeCategory(*in.Category)
	}
	if in.Description != nil && strings.TrimSpace(*in.Description) != "" {
		product.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		if !validPrice(*in.Price) {
			return Product{}, errBadPrice
		}
		product.Price = *in.Price
	}
	if image != nil {
		uri, err := s.images.Optimize(image)
		if err != nil {
			return Product{}, err
		}
		product.ProductImage = uri
	}
	if err := s.repo.Update(ctx, product); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Product{}, errNotFound
		}
		return Product{}, err
	}
	s.invalidate(ctx)
	return product, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return errNotFound
		}
		return fmt.Errorf("catalog: delete: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// validPrice rejects NaN, infinities and values outside NUMERIC(12,2).
func validPrice(price float64) bool {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return false
	}
	return price > 0 && price <= MaxPrice
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("catalog cache bump", slog.Any("error", err))
	}
}

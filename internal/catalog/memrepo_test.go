package catalog_test

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/odyssey-erp/odyssey-shop/internal/catalog"
	"github.com/odyssey-erp/odyssey-shop/internal/shared"
)

type memRepo struct {
	mu       sync.Mutex
	seq      int
	products []catalog.Product
	groups   int
}

func newMemRepo() *memRepo {
	return &memRepo{}
}

func (m *memRepo) List(context.Context) ([]catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]catalog.Product(nil), m.products...), nil
}

func (m *memRepo) Get(_ context.Context, id string) (catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return catalog.Product{}, shared.ErrNotFound
}

func (m *memRepo) ListByCategory(_ context.Context, category string) ([]catalog.Product, error) {
	return m.filter(func(p catalog.Product) bool { return p.Category == category }), nil
}

func (m *memRepo) Search(_ context.Context, query string) ([]catalog.Product, error) {
	q := strings.ToLower(query)
	return m.filter(func(p catalog.Product) bool {
		return strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(strings.ToLower(p.Category), q)
	}), nil
}

func (m *memRepo) GroupByCategory(_ context.Context, perGroup int) ([]catalog.CategoryGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups++
	byCategory := map[string][]catalog.Product{}
	for _, p := range m.products {
		if len(byCategory[p.Category]) < perGroup {
			byCategory[p.Category] = append(byCategory[p.Category], p)
		}
	}
	groups := make([]catalog.CategoryGroup, 0, len(byCategory))
	for category, products := range byCategory {
		groups = append(groups, catalog.CategoryGroup{Category: category, Products: products})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Category < groups[j].Category })
	return groups, nil
}

func (m *memRepo) Create(_ context.Context, p catalog.Product) (catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	p.ID = fmt.Sprintf("product-%d", m.seq)
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	m.products = append(m.products, p)
	return p, nil
}

func (m *memRepo) Update(_ context.Context, p catalog.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.products {
		if m.products[i].ID == p.ID {
			m.products[i] = p
			return nil
		}
	}
	return shared.ErrNotFound
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.products {
		if m.products[i].ID == id {
			m.products = append(m.products[:i], m.products[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

func (m *memRepo) groupCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.groups
}

func (m *memRepo) filter(keep func(catalog.Product) bool) []catalog.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]catalog.Product, 0)
	for _, p := range m.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

type stubImages struct{}

func (stubImages) Optimize(io.Reader) (string, error) {
	return "data:image/jpeg;base64,AA==", nil
}

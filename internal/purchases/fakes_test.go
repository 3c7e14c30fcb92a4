package purchases_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/odyssey-erp/odyssey-shop/internal/auth"
	"github.com/odyssey-erp/odyssey-shop/internal/catalog"
	"github.com/odyssey-erp/odyssey-shop/internal/purchases"
	"github.com/odyssey-erp/odyssey-shop/internal/shared"
	"github.com/odyssey-erp/odyssey-shop/jobs"
)

type memLedger struct {
	mu       sync.Mutex
	seq      int
	records  []purchases.Record
	failNext error
	keys     map[string]time.Time
	users    *userTable
	products productTable
}

func (m *memLedger) CreateBatch(_ context.Context, key string, records []purchases.Record) ([]purchases.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return nil, err
	}
	if key != "" {
		if _, dup := m.keys[key]; dup {
			return nil, shared.NewPublicError(shared.ErrConflict, "This purchase request was already processed")
		}
		m.keys[key] = time.Now()
	}
	out := make([]purchases.Record, 0, len(records))
	for _, r := range records {
		m.seq++
		r.ID = fmt.Sprintf("buy-%d", m.seq)
		out = append(out, r)
	}
	m.records = append(m.records, out...)
	return out, nil
}

func (m *memLedger) List(context.Context) ([]purchases.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := make([]purchases.Entry, 0, len(m.records))
	for _, r := range m.records {
		e := purchases.Entry{ID: r.ID, UserEmail: purchases.Missing, Title: purchases.Missing, Date: r.Date}
		if u, ok := m.users.byID[r.UserID]; ok {
			e.UserEmail = u.Email
		}
		if p, ok := m.products[r.ProductID]; ok {
			price := p.Price
			e.Price = &price
			e.Title = p.Title
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

func (m *memLedger) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.records {
		if r.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

func (m *memLedger) PruneIdempotencyKeys(_ context.Context, olderThan time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var n int64
	for k, at := range m.keys {
		if at.Before(cutoff) {
			delete(m.keys, k)
			n++
		}
	}
	return n, nil
}

func (m *memLedger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *memLedger) last() purchases.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[len(m.records)-1]
}

type userTable struct {
	byID map[string]*auth.User
}

func (u *userTable) FindByID(_ context.Context, id string) (*auth.User, error) {
	user, ok := u.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

type productTable map[string]catalog.Product

func (p productTable) Get(_ context.Context, id string) (catalog.Product, error) {
	product, ok := p[id]
	if !ok {
		return catalog.Product{}, shared.NewPublicError(shared.ErrNotFound, "Product not found!")
	}
	return product, nil
}

type recordingEnqueuer struct {
	mu       sync.Mutex
	payloads []jobs.PurchaseReceiptPayload
	err      error
}

func (r *recordingEnqueuer) EnqueuePurchaseReceipt(_ context.Context, payload jobs.PurchaseReceiptPayload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.payloads = append(r.payloads, payload)
	return nil
}

func (r *recordingEnqueuer) sent() []jobs.PurchaseReceiptPayload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]jobs.PurchaseReceiptPayload(nil), r.payloads...)
}

var errQueueDown = errors.New("queue down")

type fixture struct {
	ledger   *memLedger
	receipts *recordingEnqueuer
	service  *purchases.Service
}

func newFixture() *fixture {
	users := &userTable{byID: map[string]*auth.User{
		"user-1":  {ID: "user-1", Name: "Ana", Email: "ana@x.io"},
		"user-2":  {ID: "user-2", Name: "Bo", Email: "bo@x.io"},
		"admin-1": {ID: "admin-1", Name: "Root", Email: "root@x.io", IsAdmin: true},
	}}
	products := productTable{
		"p1": {ID: "p1", Title: "Dune", Price: 12.5},
		"p2": {ID: "p2", Title: "Chess", Price: 30},
	}
	ledger := &memLedger{keys: map[string]time.Time{}, users: users, products: products}
	receipts := &recordingEnqueuer{}
	return &fixture{
		ledger:   ledger,
		receipts: receipts,
		service:  purchases.NewService(ledger, users, products, receipts, nil),
	}
}

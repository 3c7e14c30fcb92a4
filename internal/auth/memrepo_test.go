package auth_test

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/odyssey-erp/odyssey-shop/internal/auth"
	"github.com/odyssey-erp/odyssey-shop/internal/shared"
)

type memRepo struct {
	mu     sync.Mutex
	users  map[string]*auth.User
	nextID int
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[string]*auth.User)}
}

func (m *memRepo) Create(ctx context.Context, name, email, passwordHash string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return nil, shared.NewPublicError(shared.ErrConflict, "Email already exists!")
		}
		if u.Name == name {
			return nil, shared.NewPublicError(shared.ErrConflict, "Name already exists!")
		}
	}
	m.nextID++
	now := time.Now()
	u := &auth.User{
		ID:           "user-" + strconv.Itoa(m.nextID),
		Name:         strings.TrimSpace(name),
		Email:        strings.TrimSpace(email),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *memRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memRepo) FindByID(ctx context.Context, id string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) DeleteByID(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memRepo) promote(email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			u.IsAdmin = true
		}
	}
}

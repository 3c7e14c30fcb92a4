package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-shop/internal/platform/db"
	"github.com/odyssey-erp/odyssey-shop/internal/shared"
)

// UserRepository is the Credential Store contract.
type UserRepository interface {
	Create(ctx context.Context, name, email, passwordHash string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	DeleteByID(ctx context.Context, id string) error
}

// PGRepository implements UserRepository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, name, email, password_hash, is_admin, created_at, updated_at`

// Create inserts a new user. Duplicate names or emails yield shared.ErrConflict.
func (r *PGRepository) Create(ctx context.Context, name, email, passwordHash string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        strings.TrimSpace(email),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, is_admin, created_at, updated_at) VALUES ($1, $2, $3, $4, FALSE, $5, $5)`,
		user.ID, user.Name, user.Email, user.PasswordHash, now)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, conflictFor(db.ConstraintName(err))
		}
		return nil, fmt.Errorf("auth: create user: %w", err)
	}
	return user, nil
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.TrimSpace(email))
	return scanUser(row)
}

// FindByID fetches a user by id. Malformed ids are reported as not found.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, shared.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// DeleteByID removes a user. Returns shared.ErrNotFound if nothing was deleted.
func (r *PGRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return shared.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("auth: delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetAdmin flips the admin flag for the account with the given email.
func (r *PGRepository) SetAdmin(ctx context.Context, email string, isAdmin bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_admin = $1, updated_at = now() WHERE email = $2`, isAdmin, strings.TrimSpace(email))
	if err != nil {
		return fmt.Errorf("auth: set admin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var id uuid.UUID
	if err := row.Scan(&id, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("auth: scan user: %w", err)
	}
	u.ID = id.String()
	return &u, nil
}

func conflictFor(constraint string) error {
	if constraint == "users_name_key" {
		return shared.NewPublicError(shared.ErrConflict, "Name already exists!")
	}
	return shared.NewPublicError(shared.ErrConflict, "Email already exists!")
}

var _ UserRepository = (*PGRepository)(nil)

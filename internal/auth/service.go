package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-shop/internal/shared"
)

var (
	errFieldsRequired = shared.NewPublicError(shared.ErrValidation, "All fields are required!")
	errEmailTaken     = shared.NewPublicError(shared.ErrConflict, "Email already exists!")
	errNoAccount      = shared.NewPublicError(shared.ErrConflict, "Sorry, you need to create an account first!")
	errBadCredentials = shared.NewPublicError(shared.ErrInvalidCredentials, "Invalid email or password")
	errNoUserInToken  = shared.NewPublicError(shared.ErrValidation, "no user found")
	errUserNotFound   = shared.NewPublicError(shared.ErrNotFound, "User not found")
)

// SignupInput carries the fields required to register.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// SigninResult is returned after a successful signin.
type SigninResult struct {
	User  *User
	Token Token
}

// Service wraps authentication business rules.
type Service struct {
	repo        UserRepository
	hasher      PasswordHasher
	tokens      *TokenIssuer
	revocations *RevocationList
}

// NewService constructs a new Service. revocations may be nil.
func NewService(repo UserRepository, hasher PasswordHasher, tokens *TokenIssuer, revocations *RevocationList) *Service {
	return &Service{repo: repo, hasher: hasher, tokens: tokens, revocations: revocations}
}

// TokenTTL returns the lifetime of issued session tokens.
func (s *Service) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

// Signup registers a new non-admin account.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, errFieldsRequired
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, errEmailTaken
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("auth: signup lookup: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.Create(ctx, name, email, hash)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Signin verifies credentials and mints a session token.
func (s *Service) Signin(ctx context.Context, email, password string) (*SigninResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errFieldsRequired
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errNoAccount
		}
		return nil, fmt.Errorf("auth: signin lookup: %w", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, errBadCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &SigninResult{User: user, Token: token}, nil
}

// Authenticate verifies a raw token and consults the revocation list.
func (s *Service) Authenticate(ctx context.Context, raw string) (Claims, error) {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return Claims{}, err
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return Claims{}, err
	}
	if revoked {
		return Claims{}, fmt.Errorf("%w: revoked", shared.ErrInvalidToken)
	}
	return claims, nil
}

// Signout revokes the token when a revocation list is configured. Without
// one, tokens stay valid until they expire.
func (s *Service) Signout(ctx context.Context, p shared.Principal) error {
	return s.revocations.Revoke(ctx, p.TokenID, p.ExpiresAt)
}

// Profile returns the account behind a verified identity.
func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, errNoUserInToken
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errNoAccount
		}
		return nil, fmt.Errorf("auth: profile lookup: %w", err)
	}
	return user, nil
}

// DeleteUser removes the account with the given id.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return errUserNotFound
		}
		return fmt.Errorf("auth: delete user: %w", err)
	}
	return nil
}

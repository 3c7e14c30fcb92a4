package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/odyssey-erp/odyssey-shop/internal/auth"
	"github.com/odyssey-erp/odyssey-shop/internal/shared"
)

// AdminStore is the subset of the credential store the admin command needs.
type AdminStore interface {
	FindByEmail(ctx context.Context, email string) (*auth.User, error)
	Create(ctx context.Context, name, email, passwordHash string) (*auth.User, error)
	SetAdmin(ctx context.Context, email string, isAdmin bool) error
}

// AdminOptions defines available flags for the admin command.
type AdminOptions struct {
	Email    string
	Name     string
	Password string
	Revoke   bool
	Stdout   io.Writer
	Stderr   io.Writer
}

// ParseAdminFlags parses `admin` arguments.
func ParseAdminFlags(args []string, stderr io.Writer) (AdminOptions, error) {
	var opts AdminOptions
	fs := pflag.NewFlagSet("admin", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.Email, "email", "", "email of the account to promote or create")
	fs.StringVar(&opts.Name, "name", "", "display name when creating the account")
	fs.StringVar(&opts.Password, "password", "", "password when creating the account")
	fs.BoolVar(&opts.Revoke, "revoke", false, "remove admin privileges instead of granting them")
	if err := fs.Parse(args); err != nil {
		return AdminOptions{}, err
	}
	return opts, nil
}

// AdminCLI grants or removes the admin flag. No HTTP route can do this.
type AdminCLI struct {
	store  AdminStore
	hasher auth.PasswordHasher
}

// NewAdminCLI wires the admin command.
func NewAdminCLI(store AdminStore, hasher auth.PasswordHasher) *AdminCLI {
	return &AdminCLI{store: store, hasher: hasher}
}

// Command promotes an existing account, or creates it as admin when name and
// password are supplied. It returns the process exit code.
func (c *AdminCLI) Command(ctx context.Context, opts AdminOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	email := strings.TrimSpace(opts.Email)
	if email == "" {
		_, _ = fmt.Fprintln(opts.Stderr, "admin: --email is required")
		return 2
	}

	_, err := c.store.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		if opts.Revoke {
			_, _ = fmt.Fprintf(opts.Stderr, "admin: no account for %s\n", email)
			return 1
		}
		if strings.TrimSpace(opts.Name) == "" || opts.Password == "" {
			_, _ = fmt.Fprintf(opts.Stderr, "admin: no account for %s; pass --name and --password to create one\n", email)
			return 1
		}
		hash, err := c.hasher.Hash(opts.Password)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "admin: hash password: %v\n", err)
			return 1
		}
		if _, err := c.store.Create(ctx, strings.TrimSpace(opts.Name), email, hash); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "admin: create account: %s\n", shared.PublicMessage(err, err.Error()))
			return 1
		}
		_, _ = fmt.Fprintf(opts.Stdout, "created account %s\n", email)
	case err != nil:
		_, _ = fmt.Fprintf(opts.Stderr, "admin: lookup account: %v\n", err)
		return 1
	}

	if err := c.store.SetAdmin(ctx, email, !opts.Revoke); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "admin: update account: %v\n", err)
		return 1
	}
	if opts.Revoke {
		_, _ = fmt.Fprintf(opts.Stdout, "revoked admin for %s\n", email)
	} else {
		_, _ = fmt.Fprintf(opts.Stdout, "granted admin to %s\n", email)
	}
	return 0
}

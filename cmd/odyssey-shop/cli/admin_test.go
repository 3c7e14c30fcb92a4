package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/odyssey-shop/internal/auth"
	"github.com/odyssey-erp/odyssey-shop/internal/shared"
)

type stubAdminStore struct {
	users map[string]*auth.User
}

func newStubAdminStore(users ...*auth.User) *stubAdminStore {
	s := &stubAdminStore{users: map[string]*auth.User{}}
	for _, u := range users {
		s.users[u.Email] = u
	}
	return s
}

func (s *stubAdminStore) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (s *stubAdminStore) Create(_ context.Context, name, email, hash string) (*auth.User, error) {
	u := &auth.User{ID: "user-" + name, Name: name, Email: email, PasswordHash: hash}
	s.users[email] = u
	return u, nil
}

func (s *stubAdminStore) SetAdmin(_ context.Context, email string, isAdmin bool) error {
	u, ok := s.users[email]
	if !ok {
		return shared.ErrNotFound
	}
	u.IsAdmin = isAdmin
	return nil
}

func runAdmin(t *testing.T, store AdminStore, args ...string) (int, string, string) {
	t.Helper()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	opts, err := ParseAdminFlags(args, stderr)
	require.NoError(t, err)
	opts.Stdout, opts.Stderr = stdout, stderr
	code := NewAdminCLI(store, auth.NewPasswordHasher(bcrypt.MinCost)).Command(context.Background(), opts)
	return code, stdout.String(), stderr.String()
}

func TestAdminPromotesExistingAccount(t *testing.T) {
	store := newStubAdminStore(&auth.User{ID: "u1", Name: "Ana", Email: "ana@x.io"})

	code, out, _ := runAdmin(t, store, "--email", "ana@x.io")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "granted admin to ana@x.io")
	assert.True(t, store.users["ana@x.io"].IsAdmin)

	code, _, _ = runAdmin(t, store, "--email", "ana@x.io", "--revoke")
	assert.Equal(t, 0, code)
	assert.False(t, store.users["ana@x.io"].IsAdmin)
}

func TestAdminCreatesMissingAccount(t *testing.T) {
	store := newStubAdminStore()

	code, out, _ := runAdmin(t, store, "--email", "root@x.io", "--name", "Root", "--password", "hunter22")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "created account root@x.io")

	u := store.users["root@x.io"]
	require.NotNil(t, u)
	assert.True(t, u.IsAdmin)
	assert.True(t, auth.NewPasswordHasher(bcrypt.MinCost).Verify("hunter22", u.PasswordHash))
}

func TestAdminRequiresEmailAndCredentials(t *testing.T) {
	store := newStubAdminStore()

	code, _, errOut := runAdmin(t, store)
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "--email is required")

	code, _, errOut = runAdmin(t, store, "--email", "ghost@x.io")
	assert.Equal(t, 1, code)
	assert.True(t, strings.Contains(errOut, "--name and --password"))
}

func TestParseAdminFlagsRejectsUnknownFlag(t *testing.T) {
	_, err := ParseAdminFlags([]string{"--bogus"}, new(bytes.Buffer))
	assert.Error(t, err)
}

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasherRoundTrip(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	for _, pw := range []string{"p4ss", "correct horse battery staple", "ünïcødé", " "} {
		hash, err := h.Hash(pw)
		require.NoError(t, err)
		assert.NotEqual(t, pw, hash)
		assert.True(t, h.Verify(pw, hash), "verify(%q)", pw)
		assert.False(t, h.Verify(pw+"x", hash))
	}
}

func TestPasswordHasherSaltsEveryCall(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPasswordHasherMalformedHash(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	assert.False(t, h.Verify("anything", "not-a-bcrypt-hash"))
	assert.False(t, h.Verify("anything", ""))
}

func TestNewPasswordHasherCostFallback(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).Cost)
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(99).Cost)
	assert.Equal(t, 12, NewPasswordHasher(12).Cost)
}

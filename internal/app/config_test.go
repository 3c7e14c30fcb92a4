package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/odyssey-erp/odyssey-shop/internal/testing/guard"
)

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.ClientURLs)
	assert.Equal(t, int64(10<<20), cfg.UploadMaxBytes)
	assert.False(t, cfg.RevokeOnSignout)
	assert.False(t, cfg.SecureCookies())
}

func TestLoadConfigHonoursPortAndLists(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "5000")
	t.Setenv("CLIENT_URLS", "https://shop.example,http://localhost:5173")
	t.Setenv("TOKEN_TTL", "2h")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.AppAddr)
	assert.Equal(t, []string{"https://shop.example", "http://localhost:5173"}, cfg.ClientURLs)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
}

func TestSecureCookies(t *testing.T) {
	yes, no := true, false
	cases := []struct {
		name string
		cfg  *Config
		want bool
	}{
		{"nil config", nil, false},
		{"development", &Config{AppEnv: "development"}, false},
		{"production", &Config{AppEnv: "production"}, true},
		{"forced on", &Config{AppEnv: "development", CookieSecure: &yes}, true},
		{"forced off", &Config{AppEnv: "production", CookieSecure: &no}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cfg.SecureCookies())
		})
	}
}

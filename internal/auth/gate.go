package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/odyssey-erp/odyssey-shop/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-shop/internal/shared"
)

// CookieName carries the session token.
const CookieName = "access_token"

// Authenticator verifies raw session tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (Claims, error)
}

// Gate is the request-level access control middleware.
type Gate struct {
	Auth    Authenticator
	Logger  *slog.Logger
	OnEvent func(event, outcome string)
}

// Authenticate rejects requests without a valid token with 401 and attaches
// the verified principal otherwise.
func (g Gate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := TokenFromRequest(r)
		if raw == "" {
			g.record("gate", "missing")
			httpx.Fail(w, http.StatusUnauthorized, "Unauthorized: no token provided")
			return
		}
		claims, err := g.Auth.Authenticate(r.Context(), raw)
		if err != nil {
			if !errors.Is(err, shared.ErrInvalidToken) {
				httpx.RespondError(w, g.Logger, err)
				return
			}
			g.record("gate", "invalid")
			if g.Logger != nil {
				g.Logger.Debug("token rejected", slog.String("path", r.URL.Path), slog.Bool("expired", errors.Is(err, ErrTokenExpired)))
			}
			httpx.Fail(w, http.StatusUnauthorized, "Unauthorized: invalid token")
			return
		}
		ctx := shared.ContextWithPrincipal(r.Context(), shared.Principal{
			UserID:    claims.UserID,
			IsAdmin:   claims.IsAdmin,
			TokenID:   claims.TokenID,
			ExpiresAt: claims.ExpiresAt,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after Authenticate. Non-admins get 403.
func (g Gate) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := RequireAdmin(r.Context()); err != nil {
			g.record("admin", "denied")
			httpx.RespondError(w, g.Logger, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin is the handler-local privilege check.
func RequireAdmin(ctx context.Context) error {
	p, ok := shared.PrincipalFromContext(ctx)
	if !ok {
		return shared.ErrUnauthorized
	}
	if !p.IsAdmin {
		return shared.NewPublicError(shared.ErrForbidden, "You do not have permission to perform this action!")
	}
	return nil
}

// TokenFromRequest reads the cookie first and falls back to a bearer header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func (g Gate) record(event, outcome string) {
	if g.OnEvent != nil {
		g.OnEvent(event, outcome)
	}
}

package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-shop/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-shop/internal/shared"
)

// CookieOptions controls the session cookie.
type CookieOptions struct {
	Secure bool
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	gate      Gate
	cookies   CookieOptions
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate Gate, cookies CookieOptions) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		gate:      gate,
		cookies:   cookies,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/signup", h.signup)
	r.Post("/signin", h.signin)
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Authenticate)
		r.Get("/signout", h.signout)
		r.Get("/user", h.getUser)
		r.Get("/check-admin", h.checkAdmin)
		r.With(h.gate.RequireAdmin).Delete("/user/{id}", h.deleteUser)
	})
}

type signupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type signinRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type signinResponse struct {
	Success     bool    `json:"success"`
	Message     string  `json:"message"`
	User        Profile `json:"user"`
	AccessToken string  `json:"access_token"`
}

type profileResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	User    Profile `json:"user"`
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httpx.DecodeBody(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, h.logger, errFieldsRequired)
		return
	}
	if _, err := h.service.Signup(r.Context(), SignupInput(req)); err != nil {
		h.gate.record("signup", "failed")
		httpx.RespondError(w, h.logger, err)
		return
	}
	h.gate.record("signup", "ok")
	httpx.Message(w, http.StatusCreated, true, "Sign Up successfully!")
}

func (h *Handler) signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := httpx.DecodeBody(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, h.logger, errFieldsRequired)
		return
	}
	result, err := h.service.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		h.gate.record("signin", "failed")
		httpx.RespondError(w, h.logger, err)
		return
	}
	h.gate.record("signin", "ok")
	http.SetCookie(w, h.sessionCookie(result.Token))
	httpx.JSON(w, http.StatusOK, signinResponse{
		Success:     true,
		Message:     "Sign In successfully!",
		User:        result.User.Profile(),
		AccessToken: result.Token.Value,
	})
}

func (h *Handler) signout(w http.ResponseWriter, r *http.Request) {
	if p, ok := shared.PrincipalFromContext(r.Context()); ok {
		if err := h.service.Signout(r.Context(), p); err != nil {
			h.logger.Warn("revoke token on signout", slog.Any("error", err))
		}
	}
	http.SetCookie(w, h.clearedCookie())
	httpx.Message(w, http.StatusOK, true, "Sign Out successfully!")
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	user, err := h.service.Profile(r.Context(), p.UserID)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profileResponse{Success: true, Message: "User Info", User: user.Profile()})
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Message(w, http.StatusOK, true, "User deleted successfully")
}

func (h *Handler) checkAdmin(w http.ResponseWriter, r *http.Request) {
	if err := RequireAdmin(r.Context()); err != nil {
		httpx.JSON(w, http.StatusForbidden, map[string]any{
			"ok":      false,
			"success": false,
			"message": shared.PublicMessage(err, "Forbidden"),
		})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) sessionCookie(token Token) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token.Value,
		Path:     "/",
		MaxAge:   int(h.service.TokenTTL() / time.Second),
		Expires:  token.Claims.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (h *Handler) clearedCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

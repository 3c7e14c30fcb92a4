package purchases

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-shop/internal/auth"
	"github.com/odyssey-erp/odyssey-shop/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-shop/internal/shared"
)

// IdempotencyHeader lets clients retry POST /buy without duplicating records.
const IdempotencyHeader = "Idempotency-Key"

// Handler exposes the purchase ledger endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	gate      auth.Gate
	validator *validator.Validate
}

// NewHandler constructs a purchases handler.
func NewHandler(logger *slog.Logger, service *Service, gate auth.Gate) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, gate: gate, validator: validator.New()}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Authenticate)
		r.Post("/buy", h.create)
		r.Get("/buy/users", h.list)
		r.Delete("/buy/user/{id}", h.delete)
	})
}

// productIDList accepts a JSON array or a string holding an encoded array.
type productIDList []string

func (l *productIDList) UnmarshalJSON(data []byte) error {
	var encoded string
	if err := json.Unmarshal(data, &encoded); err == nil {
		encoded = strings.TrimSpace(encoded)
		if encoded == "" {
			*l = nil
			return nil
		}
		data = []byte(encoded)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*l = ids
	return nil
}

// purchaseDate accepts RFC 3339 timestamps, YYYY-MM-DD dates and epoch
// milliseconds given as a number or a numeric string.
type purchaseDate struct {
	time.Time
}

func (d *purchaseDate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] != '"' {
		return d.setEpochMillis(json.Number(data))
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if _, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return d.setEpochMillis(json.Number(raw))
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("purchases: unrecognised date %q", raw)
}

func (d *purchaseDate) setEpochMillis(n json.Number) error {
	ms, err := n.Int64()
	if err != nil {
		return err
	}
	d.Time = time.UnixMilli(ms)
	return nil
}

type createRequest struct {
	ProductIDs productIDList `json:"productIds" validate:"min=1,dive,required"`
	UserID     string        `json:"userId"`
	Date       purchaseDate  `json:"date"`
}

type listResponse struct {
	Success       bool    `json:"success"`
	BuyingRecords []Entry `json:"buyingRecords"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeBody(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, h.logger, errProductsRequired)
		return
	}
	caller, _ := shared.PrincipalFromContext(r.Context())
	in := CreateInput{
		UserID:         req.UserID,
		ProductIDs:     req.ProductIDs,
		IdempotencyKey: r.Header.Get(IdempotencyHeader),
	}
	if !req.Date.IsZero() {
		in.Date = req.Date.UTC()
	}
	if _, err := h.service.Create(r.Context(), caller, in); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Message(w, http.StatusCreated, true, "Buying records created successfully")
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.List(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse{Success: true, BuyingRecords: entries})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Message(w, http.StatusOK, true, "Buying record deleted successfully")
}

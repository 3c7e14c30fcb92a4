package catalog

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-shop/internal/auth"
	"github.com/odyssey-erp/odyssey-shop/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-shop/internal/shared"
)

// DefaultUploadLimit bounds multipart bodies when no limit is configured.
const DefaultUploadLimit int64 = 10 << 20

const imageField = "productImage"

// Handler exposes catalog endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	gate        auth.Gate
	uploadLimit int64
	validator   *validator.Validate
}

// NewHandler constructs a catalog handler.
func NewHandler(logger *slog.Logger, service *Service, gate auth.Gate, uploadLimit int64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if uploadLimit <= 0 {
		uploadLimit = DefaultUploadLimit
	}
	return &Handler{
		logger:      logger,
		service:     service,
		gate:        gate,
		uploadLimit: uploadLimit,
		validator:   validator.New(),
	}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/search", h.search)
	r.Get("/", h.list)
	r.Get("/products/bycategory", h.grouped)
	r.Get("/products/{category}", h.byCategory)
	r.Get("/{id}", h.get)
	r.Group(func(r chi.Router) {
		r.Use(h.gate.Authenticate)
		r.Post("/add", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type productsResponse struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message,omitempty"`
	Products []Product `json:"products"`
}

type productResponse struct {
	Success bool    `json:"success"`
	Product Product `json:"product"`
}

type groupedResponse struct {
	Success  bool            `json:"success"`
	Products []CategoryGroup `json:"products"`
}

type createForm struct {
	Title       string `validate:"required"`
	Category    string `validate:"required"`
	Description string `validate:"required"`
	Price       string `validate:"required"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, productsResponse{Success: true, Products: nonNil(products)})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, productResponse{Success: true, Product: product})
}

func (h *Handler) grouped(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.Grouped(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if groups == nil {
		groups = []CategoryGroup{}
	}
	httpx.JSON(w, http.StatusOK, groupedResponse{Success: true, Products: groups})
}

func (h *Handler) byCategory(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListByCategory(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, productsResponse{Success: true, Products: nonNil(products)})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	resp := productsResponse{Success: true, Products: nonNil(products)}
	if len(products) == 0 {
		resp.Message = "No products found"
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r, "You do not have permission to add the product!") {
		return
	}
	if err := h.parseMultipart(w, r); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	form := createForm{
		Title:       r.FormValue("title"),
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
		Price:       r.FormValue("price"),
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.RespondError(w, h.logger, errFieldsRequired)
		return
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(form.Price), 64)
	if err != nil {
		httpx.RespondError(w, h.logger, errBadPrice)
		return
	}
	file, err := formImage(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if file == nil {
		httpx.RespondError(w, h.logger, errFieldsRequired)
		return
	}
	defer file.Close()

	p, _ := shared.PrincipalFromContext(r.Context())
	_, err = h.service.Create(r.Context(), CreateInput{
		Title:       form.Title,
		Category:    form.Category,
		Description: form.Description,
		Price:       price,
		AuthorID:    p.UserID,
	}, file)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Message(w, http.StatusCreated, true, "Product created successfully!")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r, "You do not have permission to update the product!") {
		return
	}
	if err := h.parseMultipart(w, r); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var in UpdateInput
	if v, ok := formField(r, "title"); ok {
		in.Title = &v
	}
	if v, ok := formField(r, "category"); ok {
		in.Category = &v
	}
	if v, ok := formField(r, "description"); ok {
		in.Description = &v
	}
	if v, ok := formField(r, "price"); ok {
		price, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			httpx.RespondError(w, h.logger, errBadPrice)
			return
		}
		in.Price = &price
	}
	file, err := formImage(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var image io.Reader
	if file != nil {
		defer file.Close()
		image = file
	}
	if _, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), in, image); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Message(w, http.StatusOK, true, "Product updated successfully!")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r, "You do not have permission to delete the product!") {
		return
	}
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Message(w, http.StatusOK, true, "Product deleted successfully!")
}

func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request, message string) bool {
	if err := auth.RequireAdmin(r.Context()); err != nil {
		if errors.Is(err, shared.ErrForbidden) {
			httpx.Fail(w, http.StatusForbidden, message)
			return false
		}
		httpx.RespondError(w, h.logger, err)
		return false
	}
	return true
}

// parseMultipart accepts multipart and url-encoded bodies up to the upload limit.
func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadLimit)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		err := r.ParseMultipartForm(h.uploadLimit)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return shared.NewPublicError(shared.ErrValidation, "Upload exceeds the size limit")
		}
		if err != nil {
			return shared.NewPublicError(shared.ErrValidation, "Invalid multipart body")
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return shared.NewPublicError(shared.ErrValidation, "Invalid request body")
	}
	return nil
}

func formField(r *http.Request, key string) (string, bool) {
	if r.MultipartForm != nil {
		if values, ok := r.MultipartForm.Value[key]; ok && len(values) > 0 {
			return values[0], true
		}
	}
	if values, ok := r.PostForm[key]; ok && len(values) > 0 {
		return values[0], true
	}
	return "", false
}

func formImage(r *http.Request) (multipart.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, _, err := r.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, shared.NewPublicError(shared.ErrValidation, "Invalid image upload")
	}
	return file, nil
}

func nonNil(products []Product) []Product {
	if products == nil {
		return []Product{}
	}
	return products
}

package app

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/odyssey-shop/internal/auth"
	"github.com/odyssey-erp/odyssey-shop/internal/catalog"
	"github.com/odyssey-erp/odyssey-shop/internal/observability"
	"github.com/odyssey-erp/odyssey-shop/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-shop/internal/purchases"
	"github.com/odyssey-erp/odyssey-shop/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AuthHandler      *auth.Handler
	CatalogHandler   *catalog.Handler
	PurchasesHandler *purchases.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
	Frontend         fs.FS
}

// NewRouter constructs the chi.Router with shop defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	if !InTestMode() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		httpx.Message(w, http.StatusOK, true, "the app is working")
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if params.AuthHandler != nil {
			r.Route("/auth", params.AuthHandler.MountRoutes)
		}
		if params.CatalogHandler != nil {
			r.Route("/product", params.CatalogHandler.MountRoutes)
		}
		if params.PurchasesHandler != nil {
			params.PurchasesHandler.MountRoutes(r)
		}
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			httpx.Fail(w, http.StatusNotFound, "Route not found")
		})
	})
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	if params.Frontend != nil {
		spa := spaHandler(params.Frontend)
		r.NotFound(func(w http.ResponseWriter, req *http.Request) {
			if (req.Method != http.MethodGet && req.Method != http.MethodHead) || strings.HasPrefix(req.URL.Path, "/api/") {
				httpx.Fail(w, http.StatusNotFound, "Route not found")
				return
			}
			spa.ServeHTTP(w, req)
		})
	}

	return r
}

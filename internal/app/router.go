package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-pos/meridian/internal/documents"
	"github.com/meridian-pos/meridian/internal/employees"
	"github.com/meridian-pos/meridian/internal/masterdata/categories"
	"github.com/meridian-pos/meridian/internal/masterdata/products"
	"github.com/meridian-pos/meridian/internal/masterdata/stores"
	"github.com/meridian-pos/meridian/internal/masterdata/units"
	"github.com/meridian-pos/meridian/internal/observability"
	"github.com/meridian-pos/meridian/internal/parties/clients"
	"github.com/meridian-pos/meridian/internal/parties/suppliers"
	"github.com/meridian-pos/meridian/internal/stock"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	UnitsHandler      *units.Handler
	CategoriesHandler *categories.Handler
	StoresHandler     *stores.Handler
	ProductsHandler   *products.Handler
	ClientsHandler    *clients.Handler
	SuppliersHandler  *suppliers.Handler
	EmployeesHandler  *employees.Handler
	StockHandler      *stock.Handler
	DocumentsHandler  *documents.Handler
	Metrics           *observability.Metrics
}

// NewRouter assembles the chi router with the full middleware stack.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		params.UnitsHandler.MountRoutes(r)
		params.CategoriesHandler.MountRoutes(r)
		params.StoresHandler.MountRoutes(r)
		params.ProductsHandler.MountRoutes(r)
		params.ClientsHandler.MountRoutes(r)
		params.SuppliersHandler.MountRoutes(r)
		params.EmployeesHandler.MountRoutes(r)
		params.StockHandler.MountRoutes(r)
		params.DocumentsHandler.MountRoutes(r)
	})

	return r
}

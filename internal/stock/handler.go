package stock

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-pos/meridian/internal/platform/httpx"
)

// Handler wires the stock HTTP endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the stock handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/stock/quantity", h.Quantity)
	r.Get("/stock/entries", h.Entries)
	r.Get("/stock/low", h.LowStock)
	r.Get("/stock/adjustments", h.ListAdjustments)
	r.Post("/stock/adjustments", h.PostAdjustment)
	r.Post("/stock/recounts", h.PostRecount)
}

func (h *Handler) Quantity(w http.ResponseWriter, r *http.Request) {
	storeID, _ := strconv.ParseInt(r.URL.Query().Get("store_id"), 10, 64)
	productID, _ := strconv.ParseInt(r.URL.Query().Get("product_id"), 10, 64)

	qty, err := h.service.Quantity(r.Context(), storeID, productID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"store_id":   storeID,
		"product_id": productID,
		"quantity":   qty,
	})
}

func (h *Handler) Entries(w http.ResponseWriter, r *http.Request) {
	storeID, _ := strconv.ParseInt(r.URL.Query().Get("store_id"), 10, 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.service.Entries(r.Context(), storeID, limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	storeID, _ := strconv.ParseInt(r.URL.Query().Get("store_id"), 10, 64)

	rows, err := h.service.LowStock(r.Context(), storeID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="low_stock.csv"`)
		if err := WriteLowStockCSV(w, rows); err != nil {
			h.logger.Error("write low stock csv", "error", err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (h *Handler) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	storeID, _ := strconv.ParseInt(r.URL.Query().Get("store_id"), 10, 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	adjustments, err := h.service.ListAdjustments(r.Context(), storeID, limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"adjustments": adjustments})
}

func (h *Handler) PostAdjustment(w http.ResponseWriter, r *http.Request) {
	var input AdjustmentInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	adj, err := h.service.PostAdjustment(r.Context(), input)
	if err != nil {
		h.logger.Error("post adjustment failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, adj)
}

type recountRequest struct {
	StoreID    int64   `json:"store_id" validate:"required,gt=0"`
	ProductID  int64   `json:"product_id" validate:"required,gt=0"`
	CountedQty float64 `json:"counted_qty" validate:"gte=0"`
	ActorID    int64   `json:"actor_id" validate:"required,gt=0"`
	Note       string  `json:"note" validate:"max=500"`
}

func (h *Handler) PostRecount(w http.ResponseWriter, r *http.Request) {
	var req recountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	adj, err := h.service.PostRecount(r.Context(), req.StoreID, req.ProductID, req.CountedQty, req.ActorID, req.Note)
	if err != nil {
		h.logger.Error("post recount failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, adj)
}

package documents

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-pos/meridian/internal/platform/httpx"
	"github.com/meridian-pos/meridian/internal/shared"
	"github.com/meridian-pos/meridian/internal/stock"
)

type Handler struct {
	logger    *slog.Logger
	processor *Processor
	validate  *validator.Validate
}

func NewHandler(logger *slog.Logger, processor *Processor) *Handler {
	return &Handler{logger: logger, processor: processor, validate: validator.New()}
}

// MountRoutes registers one CRUD surface per document type.
func (h *Handler) MountRoutes(r chi.Router) {
	mount := func(path string, t DocType) {
		r.Route(path, func(r chi.Router) {
			r.Get("/", h.list(t))
			r.Post("/", h.create(t))
			r.Get("/{id}", h.show(t))
			r.Put("/{id}", h.update(t))
			r.Delete("/{id}", h.delete(t))
		})
	}
	mount("/sales-orders", TypeSalesOrder)
	mount("/sales-returns", TypeSalesReturn)
	mount("/purchases", TypePurchase)
	mount("/purchase-returns", TypePurchaseReturn)
}

func (h *Handler) list(t DocType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters := listFilters(r)
		docs, total, err := h.processor.List(r.Context(), t, filters)
		if err != nil {
			h.logger.Error("list documents failed", "type", t, "error", err)
			h.respondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{
			"documents":  docs,
			"pagination": shared.NewPagination(filters.Page, filters.Limit, total),
		})
	}
}

func (h *Handler) show(t DocType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		doc, err := h.processor.Get(r.Context(), t, id)
		if err != nil {
			h.respondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, doc)
	}
}

func (h *Handler) create(t DocType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, ok := h.decodeInput(w, r)
		if !ok {
			return
		}
		doc, err := h.processor.Create(r.Context(), t, input)
		if err != nil {
			h.logger.Error("create document failed", "type", t, "error", err)
			h.respondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, doc)
	}
}

func (h *Handler) update(t DocType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		input, ok := h.decodeInput(w, r)
		if !ok {
			return
		}
		doc, err := h.processor.Update(r.Context(), t, id, input)
		if err != nil {
			h.logger.Error("update document failed", "type", t, "id", id, "error", err)
			h.respondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, doc)
	}
}

func (h *Handler) delete(t DocType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		if err := h.processor.Delete(r.Context(), t, id); err != nil {
			h.logger.Error("delete document failed", "type", t, "id", id, "error", err)
			h.respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (DocumentInput, bool) {
	var input DocumentInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return input, false
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return input, false
	}
	return input, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoAssignedStore):
		httpx.Problem(w, http.StatusUnprocessableEntity, "No Assigned Store", err.Error())
	case errors.Is(err, ErrDeleted):
		httpx.Problem(w, http.StatusConflict, "Document Deleted", err.Error())
	case errors.Is(err, stock.ErrUnitNotFound):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Unknown Unit", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid document id")
		return 0, false
	}
	return id, true
}

func listFilters(r *http.Request) shared.ListFilters {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 20
	}
	filters := shared.ListFilters{
		Page:           page,
		Limit:          limit,
		Search:         r.URL.Query().Get("search"),
		IncludeDeleted: r.URL.Query().Get("include_deleted") == "true",
	}
	if storeID, err := strconv.ParseInt(r.URL.Query().Get("store_id"), 10, 64); err == nil && storeID > 0 {
		filters.StoreID = &storeID
	}
	return filters
}

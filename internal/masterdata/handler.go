package masterdata

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/forgeline-erp/forgeline/internal/platform/httpx"
	"github.com/forgeline-erp/forgeline/internal/shared"
)

const (
	mutationRateLimit  = 30
	mutationRateWindow = time.Minute
)

// Handler wires HTTP endpoints for the masterdata module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs masterdata handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers masterdata routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/components", h.handleListComponents)
	r.Get("/components/{id}", h.handleGetComponent)
	r.Get("/components/{id}/offers", h.handleListOffers)
	r.Get("/suppliers", h.handleListSuppliers)
	r.Get("/suppliers/{id}", h.handleGetSupplier)
	r.Group(func(gr chi.Router) {
		gr.Use(httprate.Limit(mutationRateLimit, mutationRateWindow, httprate.WithKeyFuncs(httprate.KeyByIP)))
		gr.Post("/components", h.handleCreateComponent)
		gr.Put("/components/{id}", h.handleUpdateComponent)
		gr.Post("/suppliers", h.handleCreateSupplier)
		gr.Post("/offers", h.handleCreateOffer)
		gr.Put("/offers/{id}/price", h.handleUpdateOfferPrice)
	})
}

type componentPayload struct {
	SKU      string `json:"sku" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
	ActorID  int64  `json:"actor_id" validate:"required,gt=0"`
}

type componentUpdatePayload struct {
	Name     string `json:"name" validate:"required"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
	ActorID  int64  `json:"actor_id" validate:"required,gt=0"`
}

type offerPricePayload struct {
	Price   string `json:"price" validate:"required"`
	ActorID int64  `json:"actor_id" validate:"required,gt=0"`
}

type supplierPayload struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
	ActorID int64  `json:"actor_id" validate:"required,gt=0"`
}

type offerPayload struct {
	SupplierID       int64  `json:"supplier_id" validate:"required,gt=0"`
	ComponentID      int64  `json:"component_id" validate:"required,gt=0"`
	SupplierPartCode string `json:"supplier_part_code"`
	Price            string `json:"price" validate:"required"`
	LeadTimeDays     int    `json:"lead_time_days" validate:"gte=0"`
	ActorID          int64  `json:"actor_id" validate:"required,gt=0"`
}

func (h *Handler) handleListComponents(w http.ResponseWriter, r *http.Request) {
	components, err := h.service.ListComponents(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.respondError(w, "list components", err)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	meta := shared.NewPagination(page, perPage, len(components))
	start, end := meta.Bounds()
	httpx.JSON(w, http.StatusOK, map[string]any{"items": components[start:end], "pagination": meta})
}

func (h *Handler) handleGetComponent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}
	component, err := h.service.GetComponent(r.Context(), id)
	if err != nil {
		h.respondError(w, "get component", err)
		return
	}
	httpx.JSON(w, http.StatusOK, component)
}

func (h *Handler) handleListOffers(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}
	offers, err := h.service.ListOffersByComponent(r.Context(), id)
	if err != nil {
		h.respondError(w, "list offers", err)
		return
	}
	httpx.JSON(w, http.StatusOK, offers)
}

func (h *Handler) handleListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.service.ListSuppliers(r.Context())
	if err != nil {
		h.respondError(w, "list suppliers", err)
		return
	}
	httpx.JSON(w, http.StatusOK, suppliers)
}

func (h *Handler) handleGetSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}
	supplier, err := h.service.GetSupplier(r.Context(), id)
	if err != nil {
		h.respondError(w, "get supplier", err)
		return
	}
	httpx.JSON(w, http.StatusOK, supplier)
}

func (h *Handler) handleCreateComponent(w http.ResponseWriter, r *http.Request) {
	var payload componentPayload
	if !h.decode(w, r, &payload) {
		return
	}
	component, err := h.service.CreateComponent(r.Context(), ComponentInput{
		SKU:      payload.SKU,
		Name:     payload.Name,
		Unit:     payload.Unit,
		Category: payload.Category,
		ActorID:  payload.ActorID,
	})
	if err != nil {
		h.respondError(w, "create component", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, component)
}

func (h *Handler) handleUpdateComponent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}
	var payload componentUpdatePayload
	if !h.decode(w, r, &payload) {
		return
	}
	component, err := h.service.UpdateComponent(r.Context(), id, ComponentInput{
		Name:     payload.Name,
		Unit:     payload.Unit,
		Category: payload.Category,
		ActorID:  payload.ActorID,
	})
	if err != nil {
		h.respondError(w, "update component", err)
		return
	}
	httpx.JSON(w, http.StatusOK, component)
}

func (h *Handler) handleUpdateOfferPrice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}
	var payload offerPricePayload
	if !h.decode(w, r, &payload) {
		return
	}
	price, err := decimal.NewFromString(payload.Price)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Price", "price must be a decimal string")
		return
	}
	offer, err := h.service.UpdateOfferPrice(r.Context(), id, price, payload.ActorID)
	if err != nil {
		h.respondError(w, "update offer price", err)
		return
	}
	httpx.JSON(w, http.StatusOK, offer)
}

func (h *Handler) handleCreateSupplier(w http.ResponseWriter, r *http.Request) {
	var payload supplierPayload
	if !h.decode(w, r, &payload) {
		return
	}
	supplier, err := h.service.CreateSupplier(r.Context(), SupplierInput{
		Name:    payload.Name,
		Email:   payload.Email,
		Phone:   payload.Phone,
		ActorID: payload.ActorID,
	})
	if err != nil {
		h.respondError(w, "create supplier", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, supplier)
}

func (h *Handler) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	var payload offerPayload
	if !h.decode(w, r, &payload) {
		return
	}
	price, err := decimal.NewFromString(payload.Price)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Price", "price must be a decimal string")
		return
	}
	offer, err := h.service.CreateOffer(r.Context(), OfferInput{
		SupplierID:       payload.SupplierID,
		ComponentID:      payload.ComponentID,
		SupplierPartCode: payload.SupplierPartCode,
		Price:            price,
		LeadTimeDays:     payload.LeadTimeDays,
		ActorID:          payload.ActorID,
	})
	if err != nil {
		h.respondError(w, "create offer", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, offer)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", name+" must be numeric")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrDuplicate):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

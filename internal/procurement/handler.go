package procurement

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/forgeline-erp/forgeline/internal/platform/httpx"
)

const (
	mutationRateLimit  = 30
	mutationRateWindow = time.Minute
	dateLayout         = "2006-01-02"
)

// Handler wires HTTP endpoints for the procurement module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs procurement handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers procurement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/orders", h.handleList)
	r.Get("/orders/{id}", h.handleGet)
	r.Get("/dashboard", h.handleDashboard)
	r.Get("/components/{componentID}/open-lines", h.handleOpenLines)
	r.Group(func(gr chi.Router) {
		gr.Use(httprate.Limit(mutationRateLimit, mutationRateWindow, httprate.WithKeyFuncs(httprate.KeyByIP)))
		gr.Post("/orders", h.handleCreate)
		gr.Post("/orders/{id}/submit", h.handleTransition(h.service.SubmitOrder))
		gr.Post("/orders/{id}/approve", h.handleTransition(h.service.ApproveOrder))
		gr.Post("/orders/{id}/cancel", h.handleTransition(h.service.CancelOrder))
		gr.Post("/lines/{lineID}/receive", h.handleReceive)
	})
}

type createOrderPayload struct {
	Number    string             `json:"number"`
	OrderedAt string             `json:"ordered_at"`
	Note      string             `json:"note"`
	ActorID   int64              `json:"actor_id" validate:"required,gt=0"`
	Lines     []orderLinePayload `json:"lines" validate:"required,min=1,dive"`
}

type orderLinePayload struct {
	OfferID     int64 `json:"offer_id" validate:"required,gt=0"`
	ComponentID int64 `json:"component_id" validate:"required,gt=0"`
	Qty         int64 `json:"qty" validate:"required,gt=0"`
}

type receivePayload struct {
	Qty     int64 `json:"qty" validate:"required,gt=0"`
	ActorID int64 `json:"actor_id" validate:"required,gt=0"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", err.Error())
		return
	}
	list, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		h.respondError(w, "list orders", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "order id must be numeric")
		return
	}
	po, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.respondError(w, "get order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.respondError(w, "dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, metrics)
}

func (h *Handler) handleOpenLines(w http.ResponseWriter, r *http.Request) {
	componentID, err := strconv.ParseInt(chi.URLParam(r, "componentID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "component id must be numeric")
		return
	}
	onOrder, lines, err := h.service.OpenLineSummary(r.Context(), componentID)
	if err != nil {
		h.respondError(w, "open lines", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"on_order": onOrder, "lines": lines})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload createOrderPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := CreateOrderInput{Number: payload.Number, Note: payload.Note, ActorID: payload.ActorID}
	if payload.OrderedAt != "" {
		orderedAt, err := time.Parse(dateLayout, payload.OrderedAt)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "ordered_at must be YYYY-MM-DD")
			return
		}
		input.OrderedAt = orderedAt
	}
	for _, line := range payload.Lines {
		input.Lines = append(input.Lines, OrderLineInput{OfferID: line.OfferID, ComponentID: line.ComponentID, Qty: line.Qty})
	}
	po, err := h.service.CreateOrder(r.Context(), input)
	if err != nil {
		h.respondError(w, "create order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, po)
}

func (h *Handler) handleReceive(w http.ResponseWriter, r *http.Request) {
	lineID, err := strconv.ParseInt(chi.URLParam(r, "lineID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "line id must be numeric")
		return
	}
	var payload receivePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	line, err := h.service.ReceiveStock(r.Context(), ReceiveInput{LineID: lineID, Qty: payload.Qty, ActorID: payload.ActorID})
	if err != nil {
		h.respondError(w, "receive stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, line)
}

func (h *Handler) handleTransition(fn func(ctx context.Context, poID, actorID int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "order id must be numeric")
			return
		}
		actorID, _ := strconv.ParseInt(r.URL.Query().Get("actor_id"), 10, 64)
		if err := fn(r.Context(), id, actorID); err != nil {
			h.respondError(w, "transition order", err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func parseFilter(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	filter := Filter{
		Status:   POStatus(q.Get("status")),
		Search:   q.Get("q"),
		Supplier: q.Get("supplier"),
	}
	if from := q.Get("from"); from != "" {
		parsed, err := time.Parse(dateLayout, from)
		if err != nil {
			return Filter{}, errors.New("from must be YYYY-MM-DD")
		}
		filter.From = parsed
	}
	if to := q.Get("to"); to != "" {
		parsed, err := time.Parse(dateLayout, to)
		if err != nil {
			return Filter{}, errors.New("to must be YYYY-MM-DD")
		}
		filter.To = parsed
	}
	return filter, nil
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrInvalidState):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

package inventory

import (
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

// Handler wires HTTP endpoints for the inventory module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dashboard", h.handleDashboard)
	r.Get("/components/{componentID}/position", h.handlePosition)
	r.Group(func(gr chi.Router) {
		gr.Use(httprate.Limit(30, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		gr.Post("/components/{componentID}/adjust", h.handleAdjust)
		gr.Put("/components/{componentID}/reorder-level", h.handleReorderLevel)
	})
}

type adjustPayload struct {
	Delta   int64  `json:"delta" validate:"required"`
	Note    string `json:"note"`
	ActorID int64  `json:"actor_id" validate:"required,gt=0"`
}

type reorderLevelPayload struct {
	Level   int64 `json:"level" validate:"gte=0"`
	ActorID int64 `json:"actor_id" validate:"required,gt=0"`
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.ListPositions(r.Context())
	if err != nil {
		h.respondError(w, "dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, dashboard)
}

func (h *Handler) handlePosition(w http.ResponseWriter, r *http.Request) {
	componentID, err := strconv.ParseInt(chi.URLParam(r, "componentID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "component id must be numeric")
		return
	}
	pos, err := h.service.GetPosition(r.Context(), componentID)
	if err != nil {
		h.respondError(w, "position", err)
		return
	}
	httpx.JSON(w, http.StatusOK, pos)
}

func (h *Handler) handleAdjust(w http.ResponseWriter, r *http.Request) {
	componentID, err := strconv.ParseInt(chi.URLParam(r, "componentID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "component id must be numeric")
		return
	}
	var payload adjustPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	record, err := h.service.AdjustOnHand(r.Context(), AdjustInput{ComponentID: componentID, Delta: payload.Delta, Note: payload.Note, ActorID: payload.ActorID})
	if err != nil {
		h.respondError(w, "adjust", err)
		return
	}
	httpx.JSON(w, http.StatusOK, record)
}

func (h *Handler) handleReorderLevel(w http.ResponseWriter, r *http.Request) {
	componentID, err := strconv.ParseInt(chi.URLParam(r, "componentID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "component id must be numeric")
		return
	}
	var payload reorderLevelPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.SetReorderLevel(r.Context(), componentID, payload.Level, payload.ActorID); err != nil {
		h.respondError(w, "reorder level", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidQuantity):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

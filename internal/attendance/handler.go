package attendance

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

const (
	mutationRateLimit  = 30
	mutationRateWindow = time.Minute
	dateLayout         = "2006-01-02"
)

// Handler wires HTTP endpoints for the attendance module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs attendance handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers attendance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/staff/{staffID}/days/{date}", h.handleDaySheet)
	r.Group(func(gr chi.Router) {
		gr.Use(httprate.Limit(mutationRateLimit, mutationRateWindow, httprate.WithKeyFuncs(httprate.KeyByIP)))
		gr.Post("/events", h.handleRecordEvent)
		gr.Put("/events/{eventID}", h.handleUpdateEvent)
		gr.Delete("/events/{eventID}", h.handleDeleteEvent)
		gr.Post("/staff/{staffID}/days/{date}/recompute", h.handleRecompute)
	})
}

type eventPayload struct {
	StaffID            int64  `json:"staff_id" validate:"required,gt=0"`
	At                 string `json:"at" validate:"required"`
	Type               string `json:"type" validate:"required,oneof=clock_in clock_out break_start break_end"`
	BreakType          string `json:"break_type" validate:"omitempty,oneof=lunch other"`
	VerificationMethod string `json:"verification_method"`
	ActorID            int64  `json:"actor_id" validate:"required,gt=0"`
}

func (h *Handler) handleDaySheet(w http.ResponseWriter, r *http.Request) {
	staffID, date, ok := h.parseStaffDay(w, r)
	if !ok {
		return
	}
	sheet, err := h.service.GetDaySheet(r.Context(), staffID, date)
	if err != nil {
		h.respondError(w, "day sheet", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sheet)
}

func (h *Handler) handleRecordEvent(w http.ResponseWriter, r *http.Request) {
	var payload eventPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	at, err := time.Parse(time.RFC3339, payload.At)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Time", "at must be RFC3339")
		return
	}
	evt, err := h.service.RecordEvent(r.Context(), EventInput{
		StaffID:            payload.StaffID,
		At:                 at,
		Type:               EventType(payload.Type),
		BreakType:          payload.BreakType,
		VerificationMethod: payload.VerificationMethod,
		ActorID:            payload.ActorID,
	})
	if err != nil {
		h.respondError(w, "record event", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, evt)
}

type eventUpdatePayload struct {
	At                 string `json:"at" validate:"required"`
	Type               string `json:"type" validate:"required,oneof=clock_in clock_out break_start break_end"`
	BreakType          string `json:"break_type" validate:"omitempty,oneof=lunch other"`
	VerificationMethod string `json:"verification_method"`
	ActorID            int64  `json:"actor_id" validate:"required,gt=0"`
}

func (h *Handler) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "event id must be numeric")
		return
	}
	var payload eventUpdatePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	at, err := time.Parse(time.RFC3339, payload.At)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Time", "at must be RFC3339")
		return
	}
	evt, err := h.service.UpdateEvent(r.Context(), eventID, EventInput{
		At:                 at,
		Type:               EventType(payload.Type),
		BreakType:          payload.BreakType,
		VerificationMethod: payload.VerificationMethod,
		ActorID:            payload.ActorID,
	})
	if err != nil {
		h.respondError(w, "update event", err)
		return
	}
	httpx.JSON(w, http.StatusOK, evt)
}

func (h *Handler) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "event id must be numeric")
		return
	}
	actorID, _ := strconv.ParseInt(r.URL.Query().Get("actor_id"), 10, 64)
	if err := h.service.DeleteEvent(r.Context(), eventID, actorID); err != nil {
		h.respondError(w, "delete event", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleRecompute(w http.ResponseWriter, r *http.Request) {
	staffID, date, ok := h.parseStaffDay(w, r)
	if !ok {
		return
	}
	summary, err := h.service.RecomputeSummary(r.Context(), staffID, date)
	if err != nil {
		h.respondError(w, "recompute summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) parseStaffDay(w http.ResponseWriter, r *http.Request) (int64, time.Time, bool) {
	staffID, err := strconv.ParseInt(chi.URLParam(r, "staffID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "staff id must be numeric")
		return 0, time.Time{}, false
	}
	date, err := time.Parse(dateLayout, chi.URLParam(r, "date"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "date must be YYYY-MM-DD")
		return 0, time.Time{}, false
	}
	return staffID, date, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

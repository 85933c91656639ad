package demand

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/forgeline-erp/forgeline/internal/platform/httpx"
)

// Handler exposes component demand reads.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs demand handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers demand routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/components/{componentID}", h.handleComponentDemand)
}

func (h *Handler) handleComponentDemand(w http.ResponseWriter, r *http.Request) {
	componentID, err := strconv.ParseInt(chi.URLParam(r, "componentID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "component id must be numeric")
		return
	}
	breakdown, err := h.service.RequiredBreakdown(r.Context(), componentID)
	if err != nil {
		h.logger.Error("component demand", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	var total int64
	for _, row := range breakdown {
		total += row.Required
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"component_id": componentID, "required": total, "products": breakdown})
}

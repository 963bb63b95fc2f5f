package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ricirt/booking-backend/internal/availability"
)

// AvailabilityHandler serves the provider-availability read endpoint. No
// auth is required.
type AvailabilityHandler struct {
	engine    *availability.Engine
	defaultTZ string
	logger    *zap.Logger
}

func NewAvailabilityHandler(engine *availability.Engine, defaultTZ string, logger *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{engine: engine, defaultTZ: defaultTZ, logger: logger}
}

// Get handles GET /providers/{id}/availability?date=YYYY-MM-DD&tz=<IANA>
func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "id")
	date := r.URL.Query().Get("date")
	tz := r.URL.Query().Get("tz")
	if tz == "" {
		tz = h.defaultTZ
	}

	slots, err := h.engine.Compute(r.Context(), providerID, date, tz)
	if err != nil {
		h.logger.Warn("availability query failed",
			zap.String("provider_id", providerID), zap.Error(err))
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, slots)
}

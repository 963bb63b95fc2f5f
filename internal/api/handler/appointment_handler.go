package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/ricirt/booking-backend/internal/api/middleware"
	"github.com/ricirt/booking-backend/internal/booking"
	"github.com/ricirt/booking-backend/internal/validation"
)

// CreateAppointmentRequest is the POST /appointments body.
type CreateAppointmentRequest struct {
	ProviderID  string `json:"provider_id" validate:"required"`
	StartsAtISO string `json:"starts_at_iso" validate:"required"`
	TZ          string `json:"tz" validate:"required"`
}

// AppointmentHandler implements the /appointments surface: create, list,
// cancel. Every route requires an authenticated user.
type AppointmentHandler struct {
	engine    *booking.Engine
	validator *validation.Validator
	logger    *zap.Logger
}

func NewAppointmentHandler(engine *booking.Engine, v *validation.Validator, logger *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{engine: engine, validator: v, logger: logger}
}

// Create handles POST /appointments.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validator.Validate(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := apimw.GetUserID(r.Context())
	result, err := h.engine.CreateAppointment(r.Context(), userID, req.ProviderID, req.StartsAtISO, req.TZ)
	if err != nil {
		h.logger.Warn("create appointment failed",
			zap.String("provider_id", req.ProviderID), zap.Error(err))
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"id":     result.ID,
		"status": string(result.Status),
	})
}

// Cancel handles DELETE /appointments/{id}.
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := apimw.GetUserID(r.Context())

	result, err := h.engine.CancelAppointment(r.Context(), id, userID)
	if err != nil {
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"id":     result.ID,
		"status": string(result.Status),
	})
}

// List handles GET /appointments.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := apimw.GetUserID(r.Context())
	appts, err := h.engine.ListMyAppointments(r.Context(), userID)
	if err != nil {
		mapError(w, err)
		return
	}

	out := make([]map[string]string, 0, len(appts))
	for _, a := range appts {
		out = append(out, map[string]string{"id": a.ID, "status": string(a.Status)})
	}
	respondJSON(w, http.StatusOK, out)
}


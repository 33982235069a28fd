package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"chargebook/backend/services/booking-service/internal/http/middleware"
	"chargebook/backend/services/booking-service/internal/service"
)

// ReservationHandler exposes booking operations.
type ReservationHandler struct {
	svc    *service.ReservationService
	logger *zap.Logger
}

// NewReservationHandler builds handler.
func NewReservationHandler(svc *service.ReservationService, logger *zap.Logger) *ReservationHandler {
	return &ReservationHandler{svc: svc, logger: logger}
}

type bookingRequest struct {
	ChargerID int64  `json:"charger_id" validate:"required,gt=0"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

func (r bookingRequest) input() service.BookingInput {
	return service.BookingInput{ChargerID: r.ChargerID, StartTime: r.StartTime, EndTime: r.EndTime}
}

// Book handles POST /reservations. The owner is the authenticated caller.
func (h *ReservationHandler) Book(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	var req bookingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.svc.Book(r.Context(), userID, req.input())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Reschedule handles PUT /reservations/{id}.
func (h *ReservationHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}
	var req bookingRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.svc.Reschedule(r.Context(), id, req.input())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Cancel handles DELETE /reservations/{id}.
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}
	res, err := h.svc.Cancel(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Expire handles DELETE /reservations/expired.
func (h *ReservationHandler) Expire(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Expire(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// Mine handles GET /reservations/me.
func (h *ReservationHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	list, err := h.svc.ListMine(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// All handles GET /reservations.
func (h *ReservationHandler) All(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ByCharger handles GET /chargers/{id}/reservations.
func (h *ReservationHandler) ByCharger(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid charger id")
		return
	}
	list, err := h.svc.ListByCharger(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"chargebook/backend/services/booking-service/internal/service"
)

// ChargerHandler exposes charger inventory.
type ChargerHandler struct {
	svc    *service.ChargerService
	logger *zap.Logger
}

// NewChargerHandler builds handler.
func NewChargerHandler(svc *service.ChargerService, logger *zap.Logger) *ChargerHandler {
	return &ChargerHandler{svc: svc, logger: logger}
}

type chargerRequest struct {
	Location         string `json:"location" validate:"required,max=255"`
	Status           string `json:"status" validate:"omitempty,max=32"`
	LastServicedDate string `json:"last_serviced_date" validate:"omitempty,datetime=2006-01-02"`
}

func (r chargerRequest) input() service.ChargerInput {
	in := service.ChargerInput{Location: r.Location, Status: r.Status}
	if r.LastServicedDate != "" {
		if d, err := time.Parse("2006-01-02", r.LastServicedDate); err == nil {
			in.LastServicedDate = &d
		}
	}
	return in
}

func (h *ChargerHandler) List(w http.ResponseWriter, r *http.Request) {
	chargers, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, chargers)
}

func (h *ChargerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid charger id")
		return
	}
	charger, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, charger)
}

func (h *ChargerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req chargerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	charger, err := h.svc.Create(r.Context(), req.input())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, charger)
}

func (h *ChargerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid charger id")
		return
	}
	var req chargerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	charger, err := h.svc.Update(r.Context(), id, req.input())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, charger)
}

func (h *ChargerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid charger id")
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"chargebook/backend/services/booking-service/internal/http/middleware"
	"chargebook/backend/services/booking-service/internal/service"
)

// MaintenanceHandler exposes maintenance reports.
type MaintenanceHandler struct {
	svc    *service.MaintenanceService
	logger *zap.Logger
}

// NewMaintenanceHandler builds handler.
func NewMaintenanceHandler(svc *service.MaintenanceService, logger *zap.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{svc: svc, logger: logger}
}

// List handles GET /maintenance; ?status=unresolved hides resolved reports.
func (h *MaintenanceHandler) List(w http.ResponseWriter, r *http.Request) {
	unresolved := r.URL.Query().Get("status") == "unresolved"
	reports, err := h.svc.List(r.Context(), unresolved)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// Report handles POST /maintenance.
func (h *MaintenanceHandler) Report(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	var req struct {
		ChargerID        int64  `json:"charger_id" validate:"required,gt=0"`
		IssueDescription string `json:"issue_description" validate:"required,max=2000"`
	}
	if !decodeAndValidate(w, r, &req) {
		return
	}
	report, err := h.svc.Report(r.Context(), req.ChargerID, userID, req.IssueDescription)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

// Assign handles PUT /maintenance/{id}/assign.
func (h *MaintenanceHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid report id")
		return
	}
	var req struct {
		AssignedTo int64 `json:"assigned_to" validate:"required,gt=0"`
	}
	if !decodeAndValidate(w, r, &req) {
		return
	}
	report, err := h.svc.Assign(r.Context(), id, req.AssignedTo)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Resolve handles PUT /maintenance/{id}/resolve.
func (h *MaintenanceHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid report id")
		return
	}
	report, err := h.svc.Resolve(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Delete handles DELETE /maintenance/{id}.
func (h *MaintenanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid report id")
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

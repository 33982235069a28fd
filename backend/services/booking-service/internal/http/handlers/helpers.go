package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"chargebook/backend/services/booking-service/internal/repository"
	"chargebook/backend/services/booking-service/internal/scheduling"
	"chargebook/backend/services/booking-service/internal/service"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json field names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags. It writes the 400
// response itself and reports false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// writeServiceError maps domain and repository errors onto status codes.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, scheduling.ErrInvalidTimestamp):
		writeError(w, http.StatusBadRequest, "invalid timestamp")
	case errors.Is(err, scheduling.ErrInvalidInterval):
		writeError(w, http.StatusBadRequest, "start_time must be before end_time")
	case errors.Is(err, scheduling.ErrChargerNotFound), errors.Is(err, repository.ErrChargerNotFound):
		writeError(w, http.StatusNotFound, "charger not found")
	case errors.Is(err, scheduling.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, "reservation not found")
	case errors.Is(err, repository.ErrReportNotFound):
		writeError(w, http.StatusNotFound, "maintenance report not found")
	case errors.Is(err, scheduling.ErrSlotConflict):
		writeError(w, http.StatusConflict, "time slot already booked")
	case errors.Is(err, service.ErrInvalidCharger):
		writeError(w, http.StatusBadRequest, "location is required")
	case errors.Is(err, service.ErrEmptyIssue):
		writeError(w, http.StatusBadRequest, "issue_description is required")
	case scheduling.IsStorageError(err):
		logger.Error("storage failure", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

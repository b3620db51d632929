package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/careline/clinic-queue/internal/auth"
	"github.com/careline/clinic-queue/internal/booking"
	"github.com/careline/clinic-queue/internal/directory"
	redisclient "github.com/careline/clinic-queue/internal/redis"
	"github.com/careline/clinic-queue/internal/schedule"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// writeDomainError maps domain sentinels to stable codes. Anything
// unrecognized is an internal error.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "invalid_range", err.Error())
	case errors.Is(err, schedule.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, schedule.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "slot_unavailable", err.Error())
	case errors.Is(err, schedule.ErrSlotBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, schedule.ErrNotOwned):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, schedule.ErrScheduleNotFound):
		writeError(w, http.StatusNotFound, "schedule_not_found", err.Error())
	case errors.Is(err, schedule.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, schedule.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, schedule.ErrDoctorNotFound),
		errors.Is(err, directory.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, directory.ErrCenterNotFound):
		writeError(w, http.StatusNotFound, "center_not_found", err.Error())
	case errors.Is(err, directory.ErrDoctorHasBookings):
		writeError(w, http.StatusConflict, "doctor_has_bookings", err.Error())
	case errors.Is(err, directory.ErrDoctorHasSchedules):
		writeError(w, http.StatusConflict, "doctor_has_schedules", err.Error())
	case errors.Is(err, directory.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, "email_taken", err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, auth.ErrInvalidOTP),
		errors.Is(err, auth.ErrOTPNotRequested):
		writeError(w, http.StatusBadRequest, "invalid_otp", err.Error())
	case errors.Is(err, booking.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

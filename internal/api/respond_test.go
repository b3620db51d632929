package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/careline/clinic-queue/internal/booking"
	"github.com/careline/clinic-queue/internal/directory"
	"github.com/careline/clinic-queue/internal/schedule"
)

func TestWriteDomainErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{schedule.ErrInvalidRange, http.StatusBadRequest, "invalid_range"},
		{schedule.ErrSlotUnavailable, http.StatusConflict, "slot_unavailable"},
		{schedule.ErrSlotBeingBooked, http.StatusConflict, "slot_being_booked"},
		{schedule.ErrSlotNotFound, http.StatusNotFound, "slot_not_found"},
		{schedule.ErrScheduleNotFound, http.StatusNotFound, "schedule_not_found"},
		{schedule.ErrNotOwned, http.StatusForbidden, "forbidden"},
		{directory.ErrDoctorHasBookings, http.StatusConflict, "doctor_has_bookings"},
		{directory.ErrDoctorHasSchedules, http.StatusConflict, "doctor_has_schedules"},
		{directory.ErrEmailTaken, http.StatusBadRequest, "email_taken"},
		{booking.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{errors.New("connection reset"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeDomainError(rec, tc.err)

			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}

			var body ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error != tc.code {
				t.Fatalf("error code = %q, want %q", body.Error, tc.code)
			}
		})
	}
}

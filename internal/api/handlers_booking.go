package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/careline/clinic-queue/internal/auth"
	"github.com/careline/clinic-queue/internal/booking"
	"github.com/careline/clinic-queue/internal/schedule"
)

func bookSlotHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		slotID, err := uuid.Parse(req.SlotID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_slot_id", "slot_id must be a valid UUID")
			return
		}

		slot, err := svc.Book(r.Context(), GetPrincipal(r.Context()), slotID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toSlotResponse(*slot))
	}
}

// listBookingsHandler serves both roles: admins see the BOOKED slots of
// their center, patients see their own appointments.
func listBookingsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := GetPrincipal(r.Context())

		if p.Role == auth.RolePatient {
			appointments, err := svc.ListPatientAppointments(r.Context(), p.ID)
			if err != nil {
				writeDomainError(w, err)
				return
			}

			resp := make([]PatientAppointmentResponse, 0, len(appointments))
			for _, a := range appointments {
				resp = append(resp, PatientAppointmentResponse{
					SlotDetailResponse:  toSlotDetailResponse(a.SlotDetail),
					CurrentServingToken: a.CurrentServingToken,
				})
			}
			writeJSON(w, http.StatusOK, resp)
			return
		}

		details, err := svc.ListCenterBookings(r.Context(), p.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]SlotDetailResponse, 0, len(details))
		for _, det := range details {
			resp = append(resp, toSlotDetailResponse(det))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func patientAppointmentsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := GetPrincipal(r.Context())

		appointments, err := svc.ListPatientAppointments(r.Context(), p.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]PatientAppointmentResponse, 0, len(appointments))
		for _, a := range appointments {
			resp = append(resp, PatientAppointmentResponse{
				SlotDetailResponse:  toSlotDetailResponse(a.SlotDetail),
				CurrentServingToken: a.CurrentServingToken,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

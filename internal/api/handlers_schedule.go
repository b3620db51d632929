package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/careline/clinic-queue/internal/schedule"
)

func createScheduleHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := GetPrincipal(r.Context())

		var req CreateScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}
		if req.Date.IsZero() || req.StartTime.IsZero() || req.EndTime.IsZero() || req.SlotDuration == 0 {
			writeError(w, http.StatusBadRequest, "missing_fields", "date, start_time, end_time and slot_duration are required")
			return
		}

		created, err := svc.CreateSchedule(r.Context(), schedule.CreateScheduleInput{
			CenterID:     p.ID,
			DoctorID:     doctorID,
			Date:         req.Date,
			StartTime:    req.StartTime,
			EndTime:      req.EndTime,
			SlotDuration: req.SlotDuration,
			BufferTime:   req.BufferTime,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, CreateScheduleResponse{
			ScheduleResponse: toScheduleResponse(*created),
			SlotsGenerated:   created.TotalSlots,
		})
	}
}

func listSchedulesHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := GetPrincipal(r.Context())

		var doctorID *uuid.UUID
		if raw := r.URL.Query().Get("doctorId"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorId must be a valid UUID")
				return
			}
			doctorID = &id
		}

		var day *time.Time
		if raw := r.URL.Query().Get("date"); raw != "" {
			d, err := time.Parse("2006-01-02", raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
				return
			}
			day = &d
		}

		schedules, err := svc.ListSchedules(r.Context(), p.ID, doctorID, day)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]ScheduleResponse, 0, len(schedules))
		for _, s := range schedules {
			resp = append(resp, toScheduleResponse(s))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func publishScheduleHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := GetPrincipal(r.Context())

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_schedule_id", "id must be a valid UUID")
			return
		}

		sched, err := svc.PublishSchedule(r.Context(), id, p.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toScheduleResponse(*sched))
	}
}

func deleteScheduleHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := GetPrincipal(r.Context())

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_schedule_id", "id must be a valid UUID")
			return
		}

		if err := svc.DeleteSchedule(r.Context(), id, p.ID); err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func listScheduleSlotsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := GetPrincipal(r.Context())

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_schedule_id", "id must be a valid UUID")
			return
		}

		slots, err := svc.ListSlots(r.Context(), id, p.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]SlotDetailResponse, 0, len(slots))
		for _, det := range slots {
			resp = append(resp, toSlotDetailResponse(det))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func queueStatusHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_schedule_id", "id must be a valid UUID")
			return
		}

		token, err := svc.QueueStatus(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, QueueStatusResponse{
			ScheduleID:          id,
			CurrentServingToken: token,
		})
	}
}

func listOpenSlotsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		raw := r.URL.Query().Get("date")
		if raw == "" {
			writeError(w, http.StatusBadRequest, "missing_date", "date query parameter is required")
			return
		}
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		slots, err := svc.ListOpenSlots(r.Context(), doctorID, day)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]SlotResponse, 0, len(slots))
		for _, s := range slots {
			resp = append(resp, toSlotResponse(s))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

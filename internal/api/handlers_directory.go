package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/careline/clinic-queue/internal/directory"
)

func getMyCenterHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := GetPrincipal(r.Context())

		center, err := svc.GetCenter(r.Context(), p.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, CenterResponse{
			ID:      center.ID,
			Name:    center.Name,
			Email:   center.Email,
			Phone:   center.Phone,
			Address: center.Address,
		})
	}
}

func searchCentersHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")

		centers, err := svc.SearchCenters(r.Context(), query)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]CenterResponse, 0, len(centers))
		for _, c := range centers {
			resp = append(resp, CenterResponse{
				ID:          c.ID,
				Name:        c.Name,
				Email:       c.Email,
				Phone:       c.Phone,
				Address:     c.Address,
				DoctorCount: c.DoctorCount,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listDoctorsHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := GetPrincipal(r.Context())

		doctors, err := svc.ListDoctors(r.Context(), p.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]DoctorResponse, 0, len(doctors))
		for _, d := range doctors {
			resp = append(resp, toDoctorResponse(d))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listCenterDoctorsHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		centerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_center_id", "id must be a valid UUID")
			return
		}

		doctors, err := svc.ListDoctors(r.Context(), centerID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]DoctorResponse, 0, len(doctors))
		for _, d := range doctors {
			resp = append(resp, toDoctorResponse(d))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createDoctorHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := GetPrincipal(r.Context())

		var req CreateDoctorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "missing_fields", "doctor name is required")
			return
		}

		doc, err := svc.CreateDoctor(r.Context(), p.ID, req.Name, req.Specialty)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toDoctorResponse(*doc))
	}
}

func deleteDoctorHandler(svc *directory.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := GetPrincipal(r.Context())

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		if err := svc.DeleteDoctor(r.Context(), id, p.ID); err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

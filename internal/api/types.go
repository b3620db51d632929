package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/careline/clinic-queue/internal/directory"
	"github.com/careline/clinic-queue/internal/schedule"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Auth

type RegisterAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginAdminRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type OTPRequestRequest struct {
	Mobile string `json:"mobile"`
}

type OTPVerifyRequest struct {
	Mobile string `json:"mobile"`
	OTP    string `json:"otp"`
	Name   string `json:"name,omitempty"`
}

type AuthUserResponse struct {
	Message string `json:"message"`
	User    struct {
		ID     uuid.UUID `json:"id"`
		Name   string    `json:"name,omitempty"`
		Mobile string    `json:"mobile,omitempty"`
	} `json:"user"`
}

// Directory

type CreateDoctorRequest struct {
	Name      string  `json:"name"`
	Specialty *string `json:"specialty,omitempty"`
}

type DoctorResponse struct {
	ID              uuid.UUID `json:"id"`
	MedicalCenterID uuid.UUID `json:"medical_center_id"`
	Name            string    `json:"name"`
	Specialty       *string   `json:"specialty,omitempty"`
}

func toDoctorResponse(d directory.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:              d.ID,
		MedicalCenterID: d.MedicalCenterID,
		Name:            d.Name,
		Specialty:       d.Specialty,
	}
}

type CenterResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       *string   `json:"phone,omitempty"`
	Address     *string   `json:"address,omitempty"`
	DoctorCount int       `json:"doctor_count,omitempty"`
}

// Schedules

type CreateScheduleRequest struct {
	DoctorID     string    `json:"doctor_id"`
	Date         time.Time `json:"date"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	SlotDuration int       `json:"slot_duration"`
	BufferTime   int       `json:"buffer_time"`
}

type ScheduleResponse struct {
	ID           uuid.UUID `json:"id"`
	DoctorID     uuid.UUID `json:"doctor_id"`
	Date         time.Time `json:"date"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	SlotDuration int       `json:"slot_duration"`
	BufferTime   int       `json:"buffer_time"`
	TotalSlots   int       `json:"total_slots"`
	Status       string    `json:"status"`
}

type CreateScheduleResponse struct {
	ScheduleResponse
	SlotsGenerated int `json:"slots_generated"`
}

func toScheduleResponse(s schedule.Schedule) ScheduleResponse {
	return ScheduleResponse{
		ID:           s.ID,
		DoctorID:     s.DoctorID,
		Date:         s.Date,
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
		SlotDuration: s.SlotDuration,
		BufferTime:   s.BufferTime,
		TotalSlots:   s.TotalSlots,
		Status:       string(s.Status),
	}
}

// Slots

// ReserveSlotRequest drives the admin reserve. A mobile makes it a booking;
// without one the slot becomes a placeholder hold.
type ReserveSlotRequest struct {
	PatientMobile string `json:"patient_mobile,omitempty"`
	PatientName   string `json:"patient_name,omitempty"`
}

type UpdateSlotStatusRequest struct {
	Status string `json:"status"`
}

type PatientSummary struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Mobile string    `json:"mobile"`
}

type SlotResponse struct {
	ID         uuid.UUID       `json:"id"`
	ScheduleID uuid.UUID       `json:"schedule_id"`
	SlotNumber int             `json:"slot_number"`
	Time       time.Time       `json:"time"`
	Status     string          `json:"status"`
	Patient    *PatientSummary `json:"patient,omitempty"`
}

func toSlotResponse(s schedule.Slot) SlotResponse {
	return SlotResponse{
		ID:         s.ID,
		ScheduleID: s.ScheduleID,
		SlotNumber: s.SlotNumber,
		Time:       s.Time,
		Status:     string(s.Status),
	}
}

type SlotDetailResponse struct {
	SlotResponse
	DoctorName string `json:"doctor_name"`
	CenterName string `json:"center_name"`
}

func toSlotDetailResponse(det schedule.SlotDetail) SlotDetailResponse {
	resp := SlotDetailResponse{
		SlotResponse: toSlotResponse(det.Slot),
		DoctorName:   det.DoctorName,
		CenterName:   det.CenterName,
	}
	if det.Patient != nil {
		resp.Patient = &PatientSummary{
			ID:     det.Patient.ID,
			Name:   det.Patient.Name,
			Mobile: det.Patient.Mobile,
		}
	}
	return resp
}

// Bookings / queue

type BookSlotRequest struct {
	SlotID string `json:"slot_id"`
}

type QueueStatusResponse struct {
	ScheduleID          uuid.UUID `json:"schedule_id"`
	CurrentServingToken *int      `json:"current_serving_token"`
}

type PatientAppointmentResponse struct {
	SlotDetailResponse
	CurrentServingToken *int `json:"current_serving_token"`
}

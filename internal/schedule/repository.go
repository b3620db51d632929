package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrSlotNotFound     = errors.New("slot not found")
	ErrPatientNotFound  = errors.New("patient not found")
	ErrDoctorNotFound   = errors.New("doctor not found")
	ErrSlotUnavailable  = errors.New("slot is not available")
)

// Repository contains all DB interactions needed by the service. Every
// admin-side mutation is scoped by the acting center id; the query itself
// walks slot -> schedule -> doctor -> medical_center so a mismatched owner
// looks like not-found.
type Repository interface {
	// Schedules
	CreateScheduleWithSlots(ctx context.Context, s *Schedule, slots []GeneratedSlot) (*Schedule, error)
	GetScheduleByID(ctx context.Context, id uuid.UUID) (*Schedule, error)
	ListSchedules(ctx context.Context, centerID uuid.UUID, doctorID *uuid.UUID, day *time.Time) ([]Schedule, error)
	PublishSchedule(ctx context.Context, id, centerID uuid.UUID) (*Schedule, error)
	DeleteSchedule(ctx context.Context, id, centerID uuid.UUID) error
	DoctorBelongsToCenter(ctx context.Context, doctorID, centerID uuid.UUID) (bool, error)

	// Slots
	GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	GetSlotDetail(ctx context.Context, id uuid.UUID) (*SlotDetail, error)
	ListSlotsBySchedule(ctx context.Context, scheduleID, centerID uuid.UUID) ([]SlotDetail, error)
	ListOpenSlots(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]Slot, error)

	// Transitions. Reserve variants are conditional updates: they succeed
	// only if the row is still AVAILABLE at write time.
	ReserveSlotAdmin(ctx context.Context, slotID, centerID uuid.UUID, status SlotStatus, patientID *uuid.UUID) (*Slot, error)
	ReserveSlotPatient(ctx context.Context, slotID, patientID uuid.UUID) (*Slot, error)
	ReleaseSlot(ctx context.Context, slotID, centerID uuid.UUID) (*Slot, error)
	// UpdateSlotStatus applies an admin console transition. For SERVING it
	// demotes every other SERVING slot of the schedule to COMPLETED in the
	// same transaction.
	UpdateSlotStatus(ctx context.Context, slotID, centerID uuid.UUID, status SlotStatus) (*Slot, error)

	// Queue projection
	CurrentServingToken(ctx context.Context, scheduleID uuid.UUID) (*int, error)

	// Bookings
	ListBookingsByCenter(ctx context.Context, centerID uuid.UUID) ([]SlotDetail, error)
	ListBookingsByPatient(ctx context.Context, patientID uuid.UUID) ([]SlotDetail, error)

	// Patients
	UpsertPatientByMobile(ctx context.Context, mobile, name string) (*Patient, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// Reminder worker
	FindBookedSlotsBetween(ctx context.Context, from, to time.Time) ([]SlotDetail, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}

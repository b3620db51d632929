package schedule

import (
	"time"

	"github.com/google/uuid"
)

type ScheduleStatus string

const (
	ScheduleDraft     ScheduleStatus = "DRAFT"
	SchedulePublished ScheduleStatus = "PUBLISHED"
)

type SlotStatus string

const (
	SlotAvailable      SlotStatus = "AVAILABLE"
	SlotBooked         SlotStatus = "BOOKED"
	SlotReservedManual SlotStatus = "RESERVED_MANUAL"
	SlotServing        SlotStatus = "SERVING"
	SlotCompleted      SlotStatus = "COMPLETED"
	SlotNoShow         SlotStatus = "NO_SHOW"
	SlotCancelled      SlotStatus = "CANCELLED"
)

// holdsPatient reports whether a slot in this status carries a patient
// reference. RESERVED_MANUAL is an admin placeholder hold with no patient.
func (s SlotStatus) holdsPatient() bool {
	switch s {
	case SlotBooked, SlotServing, SlotCompleted, SlotNoShow:
		return true
	}
	return false
}

// AdminTargetStatus reports whether s is one of the statuses the live
// console may set directly through the status-update operation.
func AdminTargetStatus(s SlotStatus) bool {
	return s == SlotServing || s == SlotCompleted || s == SlotNoShow
}

type Schedule struct {
	ID           uuid.UUID
	DoctorID     uuid.UUID
	Date         time.Time
	StartTime    time.Time
	EndTime      time.Time
	SlotDuration int // minutes
	BufferTime   int // minutes
	TotalSlots   int
	Status       ScheduleStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Slot struct {
	ID         uuid.UUID
	ScheduleID uuid.UUID
	SlotNumber int
	Time       time.Time
	Status     SlotStatus
	PatientID  *uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Mobile    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SlotDetail is a slot hydrated with everything the console and the
// notification text need.
type SlotDetail struct {
	Slot
	Patient    *Patient
	Schedule   *Schedule
	DoctorName string
	CenterName string
}

type EventLog struct {
	ID        int64
	EventType string
	SlotID    *uuid.UUID
	Payload   []byte
	CreatedAt time.Time
}

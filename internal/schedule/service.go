package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careline/clinic-queue/internal/notify"
	redisclient "github.com/careline/clinic-queue/internal/redis"
)

const (
	EventScheduleCreated   = "SCHEDULE_CREATED"
	EventSchedulePublished = "SCHEDULE_PUBLISHED"
	EventScheduleDeleted   = "SCHEDULE_DELETED"
	EventSlotReserved      = "SLOT_RESERVED"
	EventSlotReleased      = "SLOT_RELEASED"
	EventSlotStatusChanged = "SLOT_STATUS_CHANGED"
)

var (
	ErrSlotBeingBooked = errors.New("slot is currently being booked, please retry")
	ErrInvalidStatus   = errors.New("invalid target status")
	ErrNotOwned        = errors.New("doctor does not belong to this medical center")
)

type Service struct {
	repo     Repository
	locker   redisclient.Locker
	notifier notify.Notifier
	log      zerolog.Logger
}

func NewService(repo Repository, locker redisclient.Locker, notifier notify.Notifier, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		locker:   locker,
		notifier: notifier,
		log:      log,
	}
}

type CreateScheduleInput struct {
	CenterID     uuid.UUID
	DoctorID     uuid.UUID
	Date         time.Time
	StartTime    time.Time
	EndTime      time.Time
	SlotDuration int
	BufferTime   int
}

// CreateSchedule generates the slot sequence for the given block and persists
// the schedule plus all its slots as one atomic unit. The schedule starts in
// DRAFT and is invisible to patients until published.
func (s *Service) CreateSchedule(ctx context.Context, in CreateScheduleInput) (*Schedule, error) {
	owned, err := s.repo.DoctorBelongsToCenter(ctx, in.DoctorID, in.CenterID)
	if err != nil {
		return nil, fmt.Errorf("check doctor ownership: %w", err)
	}
	if !owned {
		return nil, ErrNotOwned
	}

	slots, err := GenerateSlots(in.StartTime, in.EndTime, in.SlotDuration, in.BufferTime)
	if err != nil {
		return nil, err
	}

	sched := &Schedule{
		DoctorID:     in.DoctorID,
		Date:         in.Date,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		SlotDuration: in.SlotDuration,
		BufferTime:   in.BufferTime,
	}

	created, err := s.repo.CreateScheduleWithSlots(ctx, sched, slots)
	if err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}

	s.logEvent(ctx, nil, EventScheduleCreated, map[string]any{
		"schedule_id": created.ID.String(),
		"doctor_id":   created.DoctorID.String(),
		"total_slots": created.TotalSlots,
	})

	return created, nil
}

func (s *Service) PublishSchedule(ctx context.Context, scheduleID, centerID uuid.UUID) (*Schedule, error) {
	sched, err := s.repo.PublishSchedule(ctx, scheduleID, centerID)
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, nil, EventSchedulePublished, map[string]any{
		"schedule_id": sched.ID.String(),
	})

	return sched, nil
}

// DeleteSchedule removes a schedule and all its slots in one transaction,
// BOOKED slots included. Doctor deletion takes the opposite policy; see the
// directory service.
func (s *Service) DeleteSchedule(ctx context.Context, scheduleID, centerID uuid.UUID) error {
	if err := s.repo.DeleteSchedule(ctx, scheduleID, centerID); err != nil {
		return err
	}

	s.logEvent(ctx, nil, EventScheduleDeleted, map[string]any{
		"schedule_id": scheduleID.String(),
	})

	return nil
}

func (s *Service) ListSchedules(ctx context.Context, centerID uuid.UUID, doctorID *uuid.UUID, day *time.Time) ([]Schedule, error) {
	return s.repo.ListSchedules(ctx, centerID, doctorID, day)
}

func (s *Service) ListSlots(ctx context.Context, scheduleID, centerID uuid.UUID) ([]SlotDetail, error) {
	return s.repo.ListSlotsBySchedule(ctx, scheduleID, centerID)
}

// ListOpenSlots is the patient-facing search: AVAILABLE slots of PUBLISHED
// schedules for one doctor and day.
func (s *Service) ListOpenSlots(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]Slot, error) {
	return s.repo.ListOpenSlots(ctx, doctorID, day)
}

type ReserveManualInput struct {
	SlotID        uuid.UUID
	CenterID      uuid.UUID
	PatientMobile string
	PatientName   string
}

// ReserveManual is the admin-side reserve. With a mobile supplied the slot
// lands in BOOKED bound to the (upserted) patient; without one it becomes a
// RESERVED_MANUAL placeholder hold.
func (s *Service) ReserveManual(ctx context.Context, in ReserveManualInput) (*Slot, error) {
	var patientID *uuid.UUID
	status := SlotReservedManual

	if in.PatientMobile != "" {
		name := in.PatientName
		if name == "" {
			name = "Walk-in Patient"
		}
		patient, err := s.repo.UpsertPatientByMobile(ctx, in.PatientMobile, name)
		if err != nil {
			return nil, fmt.Errorf("upsert patient: %w", err)
		}
		patientID = &patient.ID
		status = SlotBooked
	}

	var reserved *Slot
	err := s.locker.WithSlotLock(ctx, in.SlotID, func(lockCtx context.Context) error {
		slot, err := s.repo.ReserveSlotAdmin(lockCtx, in.SlotID, in.CenterID, status, patientID)
		if err != nil {
			return err
		}
		reserved = slot
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.logEvent(ctx, &reserved.ID, EventSlotReserved, map[string]any{
		"status": string(reserved.Status),
	})

	if reserved.Status == SlotBooked {
		s.sendBookingConfirmation(ctx, reserved.ID)
	}

	return reserved, nil
}

// ReservePatient books a slot for an authenticated patient. The conditional
// update in the store decides the winner under concurrency; the lock only
// short-circuits the loser.
func (s *Service) ReservePatient(ctx context.Context, slotID, patientID uuid.UUID) (*Slot, error) {
	if _, err := s.repo.GetPatientByID(ctx, patientID); err != nil {
		return nil, err
	}

	var reserved *Slot
	err := s.locker.WithSlotLock(ctx, slotID, func(lockCtx context.Context) error {
		slot, err := s.repo.ReserveSlotPatient(lockCtx, slotID, patientID)
		if err != nil {
			return err
		}
		reserved = slot
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.logEvent(ctx, &reserved.ID, EventSlotReserved, map[string]any{
		"status":     string(reserved.Status),
		"patient_id": patientID.String(),
	})

	s.sendBookingConfirmation(ctx, reserved.ID)

	return reserved, nil
}

// Release returns a held slot to AVAILABLE and clears any patient binding.
// No status guard: this is the console's undo, usable even mid-serving.
func (s *Service) Release(ctx context.Context, slotID, centerID uuid.UUID) (*Slot, error) {
	slot, err := s.repo.ReleaseSlot(ctx, slotID, centerID)
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, &slot.ID, EventSlotReleased, map[string]any{})

	return slot, nil
}

// UpdateStatus applies a live-console transition. SERVING demotes any other
// SERVING slot of the schedule to COMPLETED inside the same transaction, so
// at most one slot per schedule is ever being served.
func (s *Service) UpdateStatus(ctx context.Context, slotID, centerID uuid.UUID, status SlotStatus) (*Slot, error) {
	if !AdminTargetStatus(status) {
		return nil, ErrInvalidStatus
	}

	slot, err := s.repo.UpdateSlotStatus(ctx, slotID, centerID, status)
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, &slot.ID, EventSlotStatusChanged, map[string]any{
		"status": string(slot.Status),
	})

	return slot, nil
}

// QueueStatus answers "who is being served now" for a schedule: the slot
// number of the unique SERVING slot, or nil when nobody is.
func (s *Service) QueueStatus(ctx context.Context, scheduleID uuid.UUID) (*int, error) {
	if _, err := s.repo.GetScheduleByID(ctx, scheduleID); err != nil {
		return nil, err
	}
	return s.repo.CurrentServingToken(ctx, scheduleID)
}

// PatientAppointment pairs a booking with the live token of its schedule so
// a client can tell "it is my turn" when the two numbers meet.
type PatientAppointment struct {
	SlotDetail
	CurrentServingToken *int
}

func (s *Service) ListPatientAppointments(ctx context.Context, patientID uuid.UUID) ([]PatientAppointment, error) {
	details, err := s.repo.ListBookingsByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list patient bookings: %w", err)
	}

	// One projection query per distinct schedule in the result.
	tokens := make(map[uuid.UUID]*int)
	result := make([]PatientAppointment, 0, len(details))
	for _, det := range details {
		token, ok := tokens[det.ScheduleID]
		if !ok {
			token, err = s.repo.CurrentServingToken(ctx, det.ScheduleID)
			if err != nil {
				return nil, fmt.Errorf("project queue for schedule %s: %w", det.ScheduleID, err)
			}
			tokens[det.ScheduleID] = token
		}
		result = append(result, PatientAppointment{SlotDetail: det, CurrentServingToken: token})
	}

	return result, nil
}

func (s *Service) ListCenterBookings(ctx context.Context, centerID uuid.UUID) ([]SlotDetail, error) {
	return s.repo.ListBookingsByCenter(ctx, centerID)
}

func (s *Service) sendBookingConfirmation(ctx context.Context, slotID uuid.UUID) {
	det, err := s.repo.GetSlotDetail(ctx, slotID)
	if err != nil {
		s.log.Error().Err(err).Str("slot_id", slotID.String()).Msg("load slot detail for confirmation sms")
		return
	}
	if det.Patient == nil {
		return
	}

	msg := fmt.Sprintf(
		"Booking Confirmed: You have an appointment with %s at %s on %s at %s. Slot #%d.",
		det.DoctorName,
		det.CenterName,
		det.Time.Format("02 Jan 2006"),
		det.Time.Format("15:04"),
		det.SlotNumber,
	)

	if err := s.notifier.SendSMS(ctx, det.Patient.Mobile, msg); err != nil {
		// A failed send never rolls back the booking.
		s.log.Error().Err(err).Str("mobile", det.Patient.Mobile).Msg("send booking confirmation")
	}
}

func (s *Service) logEvent(ctx context.Context, slotID *uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("event", eventType).Msg("marshal event payload")
		data = nil
	}

	ev := EventLog{
		EventType: eventType,
		SlotID:    slotID,
		Payload:   data,
		CreatedAt: time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Error().Err(err).Str("event", eventType).Msg("insert event log")
	}
}

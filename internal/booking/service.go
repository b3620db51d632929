// Package booking is the patient-facing reservation entrypoint: it checks
// the caller's identity and hands the actual transition to the slot engine.
package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careline/clinic-queue/internal/auth"
	"github.com/careline/clinic-queue/internal/schedule"
)

// ErrUnauthenticated is a distinct signal so the client can run the OTP flow
// and retry the same slot id afterward.
var ErrUnauthenticated = errors.New("patient authentication required")

// SlotReserver is the one slot-engine operation the gateway composes.
type SlotReserver interface {
	ReservePatient(ctx context.Context, slotID, patientID uuid.UUID) (*schedule.Slot, error)
}

type Service struct {
	slots SlotReserver
	log   zerolog.Logger
}

func NewService(slots SlotReserver, log zerolog.Logger) *Service {
	return &Service{slots: slots, log: log}
}

// Book reserves the slot for the authenticated patient. The confirmation SMS
// is sent by the slot engine fire-and-forget; a failed send never unwinds
// the booking.
func (s *Service) Book(ctx context.Context, principal *auth.Principal, slotID uuid.UUID) (*schedule.Slot, error) {
	if principal == nil || principal.Role != auth.RolePatient {
		return nil, ErrUnauthenticated
	}

	slot, err := s.slots.ReservePatient(ctx, slotID, principal.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("slot_id", slot.ID.String()).
		Str("patient_id", principal.ID.String()).
		Int("slot_number", slot.SlotNumber).
		Msg("slot booked")

	return slot, nil
}

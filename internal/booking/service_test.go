package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careline/clinic-queue/internal/auth"
	"github.com/careline/clinic-queue/internal/schedule"
)

type fakeReserver struct {
	lastSlotID    uuid.UUID
	lastPatientID uuid.UUID
	err           error
}

func (f *fakeReserver) ReservePatient(_ context.Context, slotID, patientID uuid.UUID) (*schedule.Slot, error) {
	f.lastSlotID = slotID
	f.lastPatientID = patientID
	if f.err != nil {
		return nil, f.err
	}
	pid := patientID
	return &schedule.Slot{
		ID:         slotID,
		SlotNumber: 1,
		Status:     schedule.SlotBooked,
		PatientID:  &pid,
	}, nil
}

func TestBookRequiresPatientPrincipal(t *testing.T) {
	reserver := &fakeReserver{}
	svc := NewService(reserver, zerolog.Nop())
	slotID := uuid.New()

	cases := []struct {
		name      string
		principal *auth.Principal
	}{
		{"no principal", nil},
		{"admin principal", &auth.Principal{ID: uuid.New(), Role: auth.RoleAdmin}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Book(context.Background(), tc.principal, slotID)
			if !errors.Is(err, ErrUnauthenticated) {
				t.Fatalf("err = %v, want ErrUnauthenticated", err)
			}
			if reserver.lastSlotID != uuid.Nil {
				t.Fatal("reserver must not be called for an unauthenticated book")
			}
		})
	}
}

func TestBookDelegatesToSlotEngine(t *testing.T) {
	reserver := &fakeReserver{}
	svc := NewService(reserver, zerolog.Nop())

	principal := &auth.Principal{ID: uuid.New(), Role: auth.RolePatient, Mobile: "0711111111"}
	slotID := uuid.New()

	slot, err := svc.Book(context.Background(), principal, slotID)
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if reserver.lastSlotID != slotID || reserver.lastPatientID != principal.ID {
		t.Fatal("slot engine called with wrong identifiers")
	}
	if slot.Status != schedule.SlotBooked {
		t.Fatalf("status = %s, want BOOKED", slot.Status)
	}
}

func TestBookPropagatesConflict(t *testing.T) {
	reserver := &fakeReserver{err: schedule.ErrSlotUnavailable}
	svc := NewService(reserver, zerolog.Nop())

	principal := &auth.Principal{ID: uuid.New(), Role: auth.RolePatient}

	_, err := svc.Book(context.Background(), principal, uuid.New())
	if !errors.Is(err, schedule.ErrSlotUnavailable) {
		t.Fatalf("err = %v, want ErrSlotUnavailable", err)
	}
}

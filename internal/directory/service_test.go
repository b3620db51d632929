package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type memoryDirectory struct {
	centers     map[uuid.UUID]*MedicalCenter
	doctors     map[uuid.UUID]*Doctor
	bookedCount map[uuid.UUID]int
}

func newMemoryDirectory() *memoryDirectory {
	return &memoryDirectory{
		centers:     make(map[uuid.UUID]*MedicalCenter),
		doctors:     make(map[uuid.UUID]*Doctor),
		bookedCount: make(map[uuid.UUID]int),
	}
}

func (m *memoryDirectory) CreateMedicalCenter(_ context.Context, mc *MedicalCenter) (*MedicalCenter, error) {
	for _, existing := range m.centers {
		if existing.Email == mc.Email {
			return nil, ErrEmailTaken
		}
	}
	created := *mc
	created.ID = uuid.New()
	m.centers[created.ID] = &created
	out := created
	return &out, nil
}

func (m *memoryDirectory) GetMedicalCenterByID(_ context.Context, id uuid.UUID) (*MedicalCenter, error) {
	mc, ok := m.centers[id]
	if !ok {
		return nil, ErrCenterNotFound
	}
	out := *mc
	return &out, nil
}

func (m *memoryDirectory) GetMedicalCenterByEmail(_ context.Context, email string) (*MedicalCenter, error) {
	for _, mc := range m.centers {
		if mc.Email == email {
			out := *mc
			return &out, nil
		}
	}
	return nil, ErrCenterNotFound
}

func (m *memoryDirectory) SearchCenters(_ context.Context, _ string) ([]CenterSummary, error) {
	var result []CenterSummary
	for _, mc := range m.centers {
		result = append(result, CenterSummary{ID: mc.ID, Name: mc.Name})
	}
	return result, nil
}

func (m *memoryDirectory) CreateDoctor(_ context.Context, d *Doctor) (*Doctor, error) {
	created := *d
	created.ID = uuid.New()
	m.doctors[created.ID] = &created
	out := created
	return &out, nil
}

func (m *memoryDirectory) GetDoctorByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	out := *d
	return &out, nil
}

func (m *memoryDirectory) ListDoctorsByCenter(_ context.Context, centerID uuid.UUID) ([]Doctor, error) {
	var result []Doctor
	for _, d := range m.doctors {
		if d.MedicalCenterID == centerID {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (m *memoryDirectory) DeleteDoctor(_ context.Context, id, centerID uuid.UUID) error {
	d, ok := m.doctors[id]
	if !ok || d.MedicalCenterID != centerID {
		return ErrDoctorNotFound
	}
	delete(m.doctors, id)
	return nil
}

func (m *memoryDirectory) CountBookedSlotsForDoctor(_ context.Context, doctorID uuid.UUID) (int, error) {
	return m.bookedCount[doctorID], nil
}

func TestDeleteDoctorBlockedByBookings(t *testing.T) {
	repo := newMemoryDirectory()
	svc := NewService(repo, zerolog.Nop())
	ctx := context.Background()

	centerID := uuid.New()
	doc, err := svc.CreateDoctor(ctx, centerID, "Dr. Silva", nil)
	if err != nil {
		t.Fatalf("CreateDoctor: %v", err)
	}

	repo.bookedCount[doc.ID] = 2
	if err := svc.DeleteDoctor(ctx, doc.ID, centerID); !errors.Is(err, ErrDoctorHasBookings) {
		t.Fatalf("err = %v, want ErrDoctorHasBookings", err)
	}
	if _, err := repo.GetDoctorByID(ctx, doc.ID); err != nil {
		t.Fatal("blocked delete must leave the doctor in place")
	}

	repo.bookedCount[doc.ID] = 0
	if err := svc.DeleteDoctor(ctx, doc.ID, centerID); err != nil {
		t.Fatalf("DeleteDoctor: %v", err)
	}
	if _, err := repo.GetDoctorByID(ctx, doc.ID); !errors.Is(err, ErrDoctorNotFound) {
		t.Fatal("doctor still present after delete")
	}
}

func TestDeleteDoctorScopedToCenter(t *testing.T) {
	repo := newMemoryDirectory()
	svc := NewService(repo, zerolog.Nop())
	ctx := context.Background()

	centerID := uuid.New()
	doc, err := svc.CreateDoctor(ctx, centerID, "Dr. Silva", nil)
	if err != nil {
		t.Fatalf("CreateDoctor: %v", err)
	}

	// Another center sees not-found, never a forbidden hint.
	if err := svc.DeleteDoctor(ctx, doc.ID, uuid.New()); !errors.Is(err, ErrDoctorNotFound) {
		t.Fatalf("err = %v, want ErrDoctorNotFound", err)
	}
}

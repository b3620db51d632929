package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrDoctorHasBookings = errors.New("cannot delete doctor with active bookings")

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) GetCenter(ctx context.Context, id uuid.UUID) (*MedicalCenter, error) {
	return s.repo.GetMedicalCenterByID(ctx, id)
}

func (s *Service) SearchCenters(ctx context.Context, query string) ([]CenterSummary, error) {
	return s.repo.SearchCenters(ctx, query)
}

func (s *Service) CreateDoctor(ctx context.Context, centerID uuid.UUID, name string, specialty *string) (*Doctor, error) {
	doc := &Doctor{
		MedicalCenterID: centerID,
		Name:            name,
		Specialty:       specialty,
	}
	created, err := s.repo.CreateDoctor(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}
	return created, nil
}

func (s *Service) ListDoctors(ctx context.Context, centerID uuid.UUID) ([]Doctor, error) {
	return s.repo.ListDoctorsByCenter(ctx, centerID)
}

// DeleteDoctor refuses while any BOOKED slot exists under the doctor.
// Schedule deletion takes the opposite policy (cascade): a schedule is the
// admin's day-level undo, a doctor is a directory record with no urgency.
func (s *Service) DeleteDoctor(ctx context.Context, id, centerID uuid.UUID) error {
	doc, err := s.repo.GetDoctorByID(ctx, id)
	if err != nil {
		return err
	}
	if doc.MedicalCenterID != centerID {
		return ErrDoctorNotFound
	}

	booked, err := s.repo.CountBookedSlotsForDoctor(ctx, id)
	if err != nil {
		return fmt.Errorf("count booked slots: %w", err)
	}
	if booked > 0 {
		return ErrDoctorHasBookings
	}

	return s.repo.DeleteDoctor(ctx, id, centerID)
}
